package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-bot/internal/config"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-bot/internal/services/admin"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
)

type MockAdmin struct {
	mock.Mock
}

func (m *MockAdmin) Payment(ctx context.Context, referenceID string) (*admin.PaymentView, error) {
	args := m.Called(ctx, referenceID)
	if res := args.Get(0); res != nil {
		return res.(*admin.PaymentView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAdmin) User(ctx context.Context, identity string) (*admin.UserView, error) {
	args := m.Called(ctx, identity)
	if res := args.Get(0); res != nil {
		return res.(*admin.UserView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAdmin) ResetQuota(ctx context.Context, identity string) (*admin.UserView, error) {
	args := m.Called(ctx, identity)
	if res := args.Get(0); res != nil {
		return res.(*admin.UserView), args.Error(1)
	}
	return nil, args.Error(1)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Admin.JWTSecretKey = "secret"
	cfg.Admin.TokenTTL = time.Hour
	return cfg
}

// run выполняет команду и возвращает вывод. closed сообщает, освобождены ли ресурсы.
func run(t *testing.T, svc AdminService, args ...string) (string, bool, error) {
	t.Helper()
	closed := false
	root := newRootCmd(deps{
		loadConfig: func(path string) (*config.Config, error) {
			assert.Equal(t, "test.yaml", path)
			return testConfig(), nil
		},
		connect: func(context.Context, *config.Config) (AdminService, func(), error) {
			return svc, func() { closed = true }, nil
		},
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", "test.yaml"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), closed, err
}

func TestTokenCommand(t *testing.T) {
	out, _, err := run(t, nil, "token", "--operator", "ops")
	require.NoError(t, err)

	claims, err := jwt.NewJWTMaker("secret", time.Hour).ParseToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)
	assert.Equal(t, jwt.RoleAdmin, claims.Role)
}

func TestTokenCommand_RequiresOperator(t *testing.T) {
	_, _, err := run(t, nil, "token")
	assert.Error(t, err)
}

func TestPaymentStatusCommand(t *testing.T) {
	svc := new(MockAdmin)
	svc.On("Payment", mock.Anything, "ref-1").Return(&admin.PaymentView{
		ReferenceID: "ref-1",
		Status:      "pending",
		Gateway:     &admin.GatewayView{Status: "SUCCESSFUL"},
	}, nil).Once()

	out, closed, err := run(t, svc, "payment", "status", "ref-1")
	require.NoError(t, err)
	assert.True(t, closed)

	var view admin.PaymentView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "SUCCESSFUL", view.Gateway.Status)
	svc.AssertExpectations(t)
}

func TestUserCommands(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		setup   func(m *MockAdmin)
		wantOut string
		wantErr error
	}{
		{
			name: "show",
			args: []string{"user", "show", "psid"},
			setup: func(m *MockAdmin) {
				m.On("User", mock.Anything, "psid").Return(&admin.UserView{Identity: "psid", Stage: "trial"}, nil).Once()
			},
			wantOut: `"stage": "trial"`,
		},
		{
			name: "reset quota",
			args: []string{"user", "reset-quota", "psid"},
			setup: func(m *MockAdmin) {
				m.On("ResetQuota", mock.Anything, "psid").Return(&admin.UserView{Identity: "psid", DailyLimit: 3}, nil).Once()
			},
			wantOut: `"messages_used_today": 0`,
		},
		{
			name: "unknown user",
			args: []string{"user", "show", "ghost"},
			setup: func(m *MockAdmin) {
				m.On("User", mock.Anything, "ghost").Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: repository.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAdmin)
			tt.setup(svc)

			out, closed, err := run(t, svc, tt.args...)
			assert.True(t, closed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantOut)
			svc.AssertExpectations(t)
		})
	}
}

func TestMissingConfigPath(t *testing.T) {
	root := newRootCmd(deps{
		loadConfig: func(string) (*config.Config, error) { return nil, errors.New("unexpected") },
	})
	root.SetArgs([]string{"--config", "", "user", "show", "psid"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path is not set")
}
