package funnel

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-bot/internal/config"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/quota"
	"github.com/magabrotheeeer/subscription-bot/internal/services/payment"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
	"github.com/magabrotheeeer/subscription-bot/internal/subscription"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// 10:00 по Аддис-Абебе
var testNow = time.Date(2024, 4, 1, 7, 0, 0, 0, time.UTC)

// fakeRepo — хранилище пользователей в памяти с проверкой версий.
type fakeRepo struct {
	mu    sync.Mutex
	users map[string]models.User
	// onUpdate вызывается после каждой успешной записи
	onUpdate func(u models.User)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]models.User{}}
}

func (r *fakeRepo) GetOrCreateUser(_ context.Context, identity string, now time.Time) (*models.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[identity]; ok {
		return &u, false, nil
	}
	u := models.NewUser(identity, now)
	u.Version = 1
	r.users[identity] = *u
	return u, true, nil
}

func (r *fakeRepo) UpdateUser(_ context.Context, u *models.User) error {
	r.mu.Lock()
	cur, ok := r.users[u.Identity]
	if !ok || cur.Version != u.Version {
		r.mu.Unlock()
		return repository.ErrConflict
	}
	u.Version++
	r.users[u.Identity] = *u
	hook := r.onUpdate
	r.mu.Unlock()
	if hook != nil {
		hook(*u)
	}
	return nil
}

func (r *fakeRepo) FindTrialUserByNumber(_ context.Context, number, excludeIdentity string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TrialMobileNumber == number && u.HasUsedTrial && u.Identity != excludeIdentity {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) put(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.Version == 0 {
		u.Version = 1
	}
	r.users[u.Identity] = *u
}

func (r *fakeRepo) user(t *testing.T, identity string) models.User {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[identity]
	require.True(t, ok, "user %s", identity)
	return u
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendText(ctx context.Context, recipientID, text string) error {
	args := m.Called(ctx, recipientID, text)
	return args.Error(0)
}

func (m *MockSender) SendButtons(ctx context.Context, recipientID, text string, buttons []models.Button) error {
	args := m.Called(ctx, recipientID, text, buttons)
	return args.Error(0)
}

type MockAssistant struct {
	mock.Mock
}

func (m *MockAssistant) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) Initiate(ctx context.Context, u *models.User, planType models.PlanType) (*payment.Result, error) {
	args := m.Called(ctx, u, planType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Result), args.Error(1)
}

type fixture struct {
	repo      *fakeRepo
	sender    *MockSender
	assistant *MockAssistant
	payments  *MockPayments
	svc       *Service
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Addis_Ababa")
	require.NoError(t, err)
	plans := subscription.NewCatalog(config.Plans{
		Weekly:  config.Plan{Name: "Weekly", Amount: 50, DurationDays: 7, DailyLimit: 30},
		Monthly: config.Plan{Name: "Monthly", Amount: 150, DurationDays: 30, DailyLimit: 50},
	}, "ETB")

	f := &fixture{
		repo:      newFakeRepo(),
		sender:    new(MockSender),
		assistant: new(MockAssistant),
		payments:  new(MockPayments),
		now:       testNow,
	}
	f.svc = New(Deps{
		Repo:      f.repo,
		Sender:    f.sender,
		Assistant: f.assistant,
		Payments:  f.payments,
		Quota:     quota.New(3, plans, loc),
		Plans:     plans,
		Location:  loc,
	}, newNoopLogger())
	f.svc.now = func() time.Time { return f.now }

	t.Cleanup(func() {
		f.sender.AssertExpectations(t)
		f.assistant.AssertExpectations(t)
		f.payments.AssertExpectations(t)
	})
	return f
}

func (f *fixture) text(t *testing.T, identity, text string) error {
	t.Helper()
	return f.svc.HandleEvent(context.Background(), models.InboundEvent{
		SenderIdentity: identity,
		Message:        &models.InboundMessage{MID: "m-" + text, Text: text},
	})
}

func (f *fixture) postback(t *testing.T, identity, payload string) error {
	t.Helper()
	return f.svc.HandleEvent(context.Background(), models.InboundEvent{
		SenderIdentity: identity,
		Postback:       &models.Postback{Payload: payload},
	})
}

func contains(parts ...string) any {
	return mock.MatchedBy(func(text string) bool {
		for _, p := range parts {
			if !strings.Contains(text, p) {
				return false
			}
		}
		return true
	})
}

func withPayloads(payloads ...string) any {
	return mock.MatchedBy(func(buttons []models.Button) bool {
		if len(buttons) != len(payloads) {
			return false
		}
		for i, b := range buttons {
			if b.Payload != payloads[i] {
				return false
			}
		}
		return true
	})
}

// trialUser — пользователь с согласием и активным пробным периодом.
func trialUser(identity string) *models.User {
	consent := testNow.Add(-time.Hour)
	reset := testNow.Add(-time.Minute)
	u := models.NewUser(identity, testNow.Add(-2*time.Hour))
	u.ConsentGrantedAt = &consent
	u.TrialMobileNumber = "251911111111"
	u.HasUsedTrial = true
	u.Stage = models.StageTrial
	u.CountersResetAt = &reset
	return u
}
