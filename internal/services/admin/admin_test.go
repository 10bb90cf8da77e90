package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-bot/internal/config"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/momo"
	"github.com/magabrotheeeer/subscription-bot/internal/quota"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
	"github.com/magabrotheeeer/subscription-bot/internal/subscription"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetUser(ctx context.Context, identity string) (*models.User, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) UpdateUser(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockRepository) GetPaymentRequest(ctx context.Context, referenceID string) (*models.PaymentRequest, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRequest), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetStatus(ctx context.Context, referenceID string) (*momo.Transaction, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*momo.Transaction), args.Error(1)
}

var testNow = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T) (*Service, *MockRepository, *MockGateway) {
	t.Helper()
	plans := subscription.NewCatalog(config.Plans{
		Weekly:  config.Plan{Name: "Weekly", Amount: 50, DurationDays: 7, DailyLimit: 30},
		Monthly: config.Plan{Name: "Monthly", Amount: 150, DurationDays: 30, DailyLimit: 50},
	}, "ETB")
	repo := new(MockRepository)
	gateway := new(MockGateway)
	s := New(repo, gateway, quota.New(3, plans, time.UTC), newNoopLogger())
	s.now = func() time.Time { return testNow }
	t.Cleanup(func() {
		repo.AssertExpectations(t)
		gateway.AssertExpectations(t)
	})
	return s, repo, gateway
}

func TestService_Payment(t *testing.T) {
	stored := &models.PaymentRequest{
		ReferenceID: "ref-1",
		ExternalID:  "ext-1",
		Owner:       "psid",
		PlanType:    models.PlanWeekly,
		Amount:      50,
		Currency:    "ETB",
		PhoneNumber: "251921234567",
		Status:      models.PaymentPending,
	}

	tests := []struct {
		name        string
		gatewayTx   *momo.Transaction
		gatewayErr  error
		wantStatus  string
		wantErrText string
	}{
		{
			name:       "with gateway status",
			gatewayTx:  &momo.Transaction{Status: "FAILED", Reason: &momo.Reason{Code: "PAYER_NOT_FOUND"}},
			wantStatus: "FAILED",
		},
		{
			name:        "gateway unavailable",
			gatewayErr:  errors.New("timeout"),
			wantErrText: "timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, repo, gateway := newService(t)
			repo.On("GetPaymentRequest", mock.Anything, "ref-1").Return(stored, nil).Once()
			gateway.On("GetStatus", mock.Anything, "ref-1").Return(tt.gatewayTx, tt.gatewayErr).Once()

			view, err := s.Payment(context.Background(), "ref-1")
			require.NoError(t, err)
			assert.Equal(t, "pending", view.Status)
			assert.Equal(t, "25192****567", view.PhoneNumber)
			if tt.wantStatus != "" {
				require.NotNil(t, view.Gateway)
				assert.Equal(t, tt.wantStatus, view.Gateway.Status)
				assert.Equal(t, "PAYER_NOT_FOUND", view.Gateway.Reason)
			}
			if tt.wantErrText != "" {
				assert.Nil(t, view.Gateway)
				assert.Contains(t, view.GatewayError, tt.wantErrText)
			}
		})
	}
}

func TestService_PaymentNotFound(t *testing.T) {
	s, repo, _ := newService(t)
	repo.On("GetPaymentRequest", mock.Anything, "missing").Return(nil, repository.ErrNotFound).Once()

	_, err := s.Payment(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestService_User(t *testing.T) {
	s, repo, _ := newService(t)
	expiry := testNow.Add(48 * time.Hour)
	reset := testNow.Add(-time.Hour)
	u := models.NewUser("psid", testNow.Add(-24*time.Hour))
	u.Stage = models.StageSubscribed
	u.Subscription = models.Subscription{PlanType: models.PlanMonthly, Status: models.SubscriptionActive, Amount: 150, ExpiryDate: &expiry}
	u.DailyMessageCount = 7
	u.CountersResetAt = &reset
	repo.On("GetUser", mock.Anything, "psid").Return(u, nil).Once()

	view, err := s.User(context.Background(), "psid")
	require.NoError(t, err)
	assert.Equal(t, "subscribed", view.Stage)
	assert.Equal(t, 7, view.MessagesUsedToday)
	assert.Equal(t, 50, view.DailyLimit)
	assert.Equal(t, "monthly", view.SubscriptionPlan)
	assert.Empty(t, view.SelectedPlan)
}

func TestService_ResetQuota(t *testing.T) {
	tests := []struct {
		name      string
		updateErr error
		wantErr   error
	}{
		{name: "reset"},
		{name: "stale version", updateErr: repository.ErrConflict, wantErr: repository.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, repo, _ := newService(t)
			reset := testNow.Add(-time.Hour)
			u := models.NewUser("psid", testNow.Add(-24*time.Hour))
			u.Stage = models.StageTrial
			u.TrialMessagesUsedToday = 3
			u.CountersResetAt = &reset
			repo.On("GetUser", mock.Anything, "psid").Return(u, nil).Once()
			repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
				return u.TrialMessagesUsedToday == 0 && u.CountersResetAt.Equal(testNow)
			})).Return(tt.updateErr).Once()

			view, err := s.ResetQuota(context.Background(), "psid")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, view.MessagesUsedToday)
			assert.Equal(t, 3, view.DailyLimit)
		})
	}
}
