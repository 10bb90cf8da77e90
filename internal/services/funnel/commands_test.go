package funnel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-bot/internal/models"
)

func TestCancel(t *testing.T) {
	future := testNow.Add(48 * time.Hour)

	tests := []struct {
		name      string
		mutate    func(u *models.User)
		wantStage models.Stage
		wantText  string
		check     func(t *testing.T, u models.User)
	}{
		{
			name: "awaiting payment reverts to trial",
			mutate: func(u *models.User) {
				u.Stage = models.StageAwaitingPayment
				u.PaymentSession = &models.PaymentSession{Reference: "ref", ExternalID: "ext"}
			},
			wantStage: models.StageTrial,
			wantText:  "pending payment was cancelled",
			check: func(t *testing.T, u models.User) {
				assert.Nil(t, u.PaymentSession)
			},
		},
		{
			name: "awaiting payment with active subscription stays subscribed",
			mutate: func(u *models.User) {
				u.Stage = models.StageAwaitingPayment
				u.PaymentSession = &models.PaymentSession{Reference: "ref"}
				u.Subscription = models.Subscription{PlanType: models.PlanWeekly, Status: models.SubscriptionActive, ExpiryDate: &future}
			},
			wantStage: models.StageSubscribed,
			wantText:  "pending payment was cancelled",
		},
		{
			name: "awaiting phone reverts to initial",
			mutate: func(u *models.User) {
				u.Stage = models.StageAwaitingPhone
				u.HasUsedTrial = false
				u.TrialMobileNumber = "251933333333"
			},
			wantStage: models.StageInitial,
			wantText:  "Phone registration cancelled",
			check: func(t *testing.T, u models.User) {
				assert.Empty(t, u.TrialMobileNumber)
			},
		},
		{
			name: "awaiting phone for payment returns to resting stage",
			mutate: func(u *models.User) {
				u.Stage = models.StageAwaitingPhoneForPayment
				u.PaymentMobileNumber = "251922222222"
				u.LastSelectedPlanType = models.PlanMonthly
			},
			wantStage: models.StageTrial,
			wantText:  "Plan selection cancelled",
			check: func(t *testing.T, u models.User) {
				assert.Empty(t, u.PaymentMobileNumber)
				assert.Equal(t, models.PlanNone, u.LastSelectedPlanType)
			},
		},
		{
			name:      "nothing to cancel",
			mutate:    func(*models.User) {},
			wantStage: models.StageTrial,
			wantText:  "nothing to cancel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			u := trialUser("psid")
			tt.mutate(u)
			f.repo.put(u)
			f.sender.On("SendText", mock.Anything, "psid", contains(tt.wantText)).Return(nil).Once()

			require.NoError(t, f.text(t, "psid", "  Cancel "))

			stored := f.repo.user(t, "psid")
			assert.Equal(t, tt.wantStage, stored.Stage)
			if tt.check != nil {
				tt.check(t, stored)
			}
		})
	}
}

func TestStartResetsEverything(t *testing.T) {
	f := newFixture(t)
	u := trialUser("psid")
	u.TrialMessagesUsedToday = 2
	u.PaymentSession = &models.PaymentSession{Reference: "ref"}
	u.Stage = models.StageAwaitingPayment
	f.repo.put(u)

	f.sender.On("SendButtons", mock.Anything, "psid", contains("Welcome"), withPayloads(PayloadAgree)).Return(nil).Once()
	require.NoError(t, f.text(t, "psid", "start over please"))

	stored := f.repo.user(t, "psid")
	assert.Equal(t, models.StageInitial, stored.Stage)
	assert.Nil(t, stored.ConsentGrantedAt)
	assert.False(t, stored.HasUsedTrial)
	assert.Nil(t, stored.PaymentSession)
	assert.Empty(t, stored.TrialMobileNumber)
	assert.Equal(t, 2, stored.TrialMessagesUsedToday)
}

func TestResetMe(t *testing.T) {
	f := newFixture(t)
	u := trialUser("psid")
	u.TrialMessagesUsedToday = 3
	f.repo.put(u)

	f.sender.On("SendText", mock.Anything, "psid", contains("counters have been reset")).Return(nil).Once()
	require.NoError(t, f.text(t, "psid", "resetme"))
	assert.Equal(t, 0, f.repo.user(t, "psid").TrialMessagesUsedToday)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	u := trialUser("psid")
	expiry := time.Date(2024, 4, 5, 9, 0, 0, 0, time.UTC)
	u.Stage = models.StageSubscribed
	u.Subscription = models.Subscription{PlanType: models.PlanWeekly, Status: models.SubscriptionActive, Amount: 50, ExpiryDate: &expiry}
	u.DailyMessageCount = 4
	f.repo.put(u)

	f.sender.On("SendText", mock.Anything, "psid",
		contains("Stage: subscribed", "Messages today: 4 of 30", "weekly (active)", "05 Apr 2024 12:00")).Return(nil).Once()
	require.NoError(t, f.text(t, "psid", "STATUS"))
}

func TestHelpWorksBeforeConsent(t *testing.T) {
	f := newFixture(t)
	f.repo.put(models.NewUser("psid", testNow.Add(-time.Hour)))

	f.sender.On("SendText", mock.Anything, "psid", contains("Here's what you can do")).Return(nil).Once()
	require.NoError(t, f.text(t, "psid", "help"))
}

func TestCommandFailureReportedNotEscalated(t *testing.T) {
	f := newFixture(t)
	f.repo.put(trialUser("psid"))
	f.svc.repo = &racingRepo{fakeRepo: f.repo}

	f.sender.On("SendText", mock.Anything, "psid", contains(`couldn't complete "resetme"`)).Return(nil).Once()
	require.NoError(t, f.text(t, "psid", "resetme"))
}
