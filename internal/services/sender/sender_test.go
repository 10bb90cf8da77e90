package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-bot/internal/messenger"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/rabbitmq"
)

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, msg models.OutboundMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSenderService_HandleOutbound(t *testing.T) {
	msg := models.OutboundMessage{
		Recipient: "psid",
		Text:      "choose",
		Buttons:   []models.Button{{Title: "Weekly", Payload: "SUBSCRIBE_WEEKLY"}},
	}

	tests := []struct {
		name       string
		body       string
		setupMocks func(d *MockDeliverer)
		wantErr    bool
		wantDrop   bool
	}{
		{
			name: "delivered",
			body: `{"recipient":"psid","text":"choose","buttons":[{"title":"Weekly","payload":"SUBSCRIBE_WEEKLY"}]}`,
			setupMocks: func(d *MockDeliverer) {
				d.On("Deliver", mock.Anything, msg).Return(nil).Once()
			},
		},
		{
			name:     "malformed json",
			body:     `{"recipient":`,
			wantErr:  true,
			wantDrop: true,
		},
		{
			name:     "empty message",
			body:     `{"recipient":"psid"}`,
			wantErr:  true,
			wantDrop: true,
		},
		{
			name: "rejected by send api",
			body: `{"recipient":"psid","text":"hi"}`,
			setupMocks: func(d *MockDeliverer) {
				d.On("Deliver", mock.Anything, mock.Anything).
					Return(fmt.Errorf("messenger.Deliver: %w: 400", messenger.ErrRejected)).Once()
			},
			wantErr:  true,
			wantDrop: true,
		},
		{
			name: "transient failure is requeued",
			body: `{"recipient":"psid","text":"hi"}`,
			setupMocks: func(d *MockDeliverer) {
				d.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := new(MockDeliverer)
			if tt.setupMocks != nil {
				tt.setupMocks(d)
			}
			service := NewSenderService(d, time.Second, newNoopLogger())

			err := service.HandleOutbound([]byte(tt.body))

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantDrop, errors.Is(err, rabbitmq.ErrDrop))
			} else {
				assert.NoError(t, err)
			}
			d.AssertExpectations(t)
		})
	}
}
