package payment

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-bot/internal/config"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/momo"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
	"github.com/magabrotheeeer/subscription-bot/internal/subscription"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNow = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

func testPlans() *subscription.Catalog {
	return subscription.NewCatalog(config.Plans{
		Weekly:  config.Plan{Name: "Weekly", Amount: 50, DurationDays: 7, DailyLimit: 30},
		Monthly: config.Plan{Name: "Monthly", Amount: 150, DurationDays: 30, DailyLimit: 50},
	}, "ETB")
}

// memRepo — хранилище в памяти с проверкой версий, как у PostgreSQL-реализации.
type memRepo struct {
	mu       sync.Mutex
	users    map[string]models.User
	payments map[string]models.PaymentRequest
	order    []string
	// beforeUpdate вызывается перед записью пользователя, чтобы сымитировать конкурентную запись
	beforeUpdate func(identity string)
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]models.User{}, payments: map[string]models.PaymentRequest{}}
}

func (r *memRepo) put(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.Version == 0 {
		u.Version = 1
	}
	r.users[u.Identity] = *u
}

func (r *memRepo) user(t *testing.T, identity string) models.User {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[identity]
	require.True(t, ok, "user %s", identity)
	return u
}

func (r *memRepo) payment(t *testing.T, reference string) models.PaymentRequest {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[reference]
	require.True(t, ok, "payment %s", reference)
	return p
}

func (r *memRepo) GetUser(_ context.Context, identity string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[identity]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memRepo) UpdateUser(_ context.Context, u *models.User) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate(u.Identity)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.Identity]
	if !ok || cur.Version != u.Version {
		return repository.ErrConflict
	}
	u.Version++
	r.users[u.Identity] = *u
	return nil
}

func (r *memRepo) FindUserByPaymentReference(_ context.Context, reference string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PaymentSession != nil && u.PaymentSession.Reference == reference {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) FindUserByPaymentExternalID(_ context.Context, externalID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PaymentSession != nil && u.PaymentSession.ExternalID == externalID {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) CreatePaymentRequest(_ context.Context, req *models.PaymentRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.Status == "" {
		req.Status = models.PaymentPending
	}
	req.CreatedAt = testNow.Add(time.Duration(len(r.order)) * time.Second)
	r.payments[req.ReferenceID] = *req
	r.order = append(r.order, req.ReferenceID)
	return nil
}

func (r *memRepo) GetPaymentRequest(_ context.Context, referenceID string) (*models.PaymentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[referenceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) FindPaymentRequestByExternalID(_ context.Context, externalID string) (*models.PaymentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []models.PaymentRequest
	for _, p := range r.payments {
		if p.ExternalID == externalID {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.After(found[j].CreatedAt) })
	return &found[0], nil
}

func (r *memRepo) UpdatePaymentStatus(_ context.Context, referenceID string, status models.PaymentStatus, reason string, raw []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[referenceID]
	if !ok || p.Status.Terminal() {
		return false, nil
	}
	p.Status = status
	p.Reason = reason
	p.RawCallback = raw
	r.payments[referenceID] = p
	return true, nil
}

// SettlePayment повторяет транзакцию PostgreSQL: статус меняется только вместе с пользователем.
func (r *memRepo) SettlePayment(_ context.Context, referenceID string, status models.PaymentStatus, reason string, raw []byte, u *models.User) (bool, error) {
	if r.beforeUpdate != nil {
		r.beforeUpdate(u.Identity)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[referenceID]
	if !ok || p.Status.Terminal() {
		return false, nil
	}
	cur, ok := r.users[u.Identity]
	if !ok || cur.Version != u.Version {
		return false, repository.ErrConflict
	}
	u.Version++
	r.users[u.Identity] = *u
	p.Status = status
	p.Reason = reason
	p.RawCallback = raw
	r.payments[referenceID] = p
	return true, nil
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Submit(ctx context.Context, req momo.SubmitRequest) (*momo.SubmitResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*momo.SubmitResult), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendText(ctx context.Context, recipientID, text string) error {
	args := m.Called(ctx, recipientID, text)
	return args.Error(0)
}

type fixture struct {
	repo         *memRepo
	gateway      *MockGateway
	notifier     *MockNotifier
	settler      *Settler
	orchestrator *Orchestrator
	reconciler   *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemRepo()
	gateway := new(MockGateway)
	notifier := new(MockNotifier)
	plans := testPlans()
	loc, err := time.LoadLocation("Africa/Addis_Ababa")
	require.NoError(t, err)

	settler := NewSettler(repo, notifier, plans, loc, nil, newNoopLogger())
	settler.now = func() time.Time { return testNow }
	orchestrator := NewOrchestrator(repo, gateway, settler, plans, nil, newNoopLogger())
	orchestrator.now = func() time.Time { return testNow }
	reconciler := NewReconciler(settler, nil, newNoopLogger(), DefaultResolvers(repo)...)

	t.Cleanup(func() {
		gateway.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})
	return &fixture{
		repo:         repo,
		gateway:      gateway,
		notifier:     notifier,
		settler:      settler,
		orchestrator: orchestrator,
		reconciler:   reconciler,
	}
}

// payingUser — пользователь на пробном периоде, указавший номер для оплаты.
func payingUser(identity string) *models.User {
	consent := testNow.Add(-time.Hour)
	u := models.NewUser(identity, testNow.Add(-2*time.Hour))
	u.ConsentGrantedAt = &consent
	u.TrialMobileNumber = "251911111111"
	u.HasUsedTrial = true
	u.PaymentMobileNumber = "251921234567"
	u.LastSelectedPlanType = models.PlanWeekly
	u.Stage = models.StageAwaitingPhoneForPayment
	return u
}
