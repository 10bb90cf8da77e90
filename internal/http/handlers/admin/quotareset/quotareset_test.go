package quotareset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-bot/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-bot/internal/services/admin"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ResetQuota(ctx context.Context, identity string) (*admin.UserView, error) {
	args := m.Called(ctx, identity)
	if res := args.Get(0); res != nil {
		return res.(*admin.UserView), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		view           *admin.UserView
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "квота сброшена",
			view:           &admin.UserView{Identity: "psid", MessagesUsedToday: 0, DailyLimit: 3},
			expectedStatus: http.StatusOK,
			expectedBody:   `"messages_used_today":0`,
		},
		{
			name:           "пользователь не найден",
			err:            repository.ErrNotFound,
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"user not found"`,
		},
		{
			name:           "конфликт версий",
			err:            repository.ErrConflict,
			expectedStatus: http.StatusConflict,
			expectedBody:   `retry`,
		},
		{
			name:           "ошибка хранилища",
			err:            errors.New("db error"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not reset quota"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("ResetQuota", mock.Anything, "psid").Return(tt.view, tt.err).Once()
			handler := New(logger, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/psid/quota/reset", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("identity", "psid")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.Operator, "ops")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req.WithContext(ctx))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
