package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-bot/internal/models"
)

const userColumns = `identity, stage, consent_granted_at, trial_mobile_number, payment_mobile_number,
	has_used_trial, trial_messages_used_today, daily_message_count, counters_reset_at,
	last_selected_plan_type, plan_type, subscription_status, subscription_amount,
	subscription_expiry, payment_reference, payment_external_id, expiry_reminded_for,
	version, created_at, updated_at`

// GetOrCreateUser возвращает пользователя по identity, создавая его при первом контакте.
// created == true, если пользователь только что создан.
func (s *Storage) GetOrCreateUser(ctx context.Context, identity string, now time.Time) (*models.User, bool, error) {
	const op = "storage.GetOrCreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, false, err
	}

	query := `INSERT INTO users (identity, stage, created_at, updated_at)
			  VALUES ($1, $2, $3, $3)
			  ON CONFLICT (identity) DO NOTHING
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, identity, models.StageInitial, now))
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	u, err = s.GetUser(ctx, identity)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return u, false, nil
}

// GetUser возвращает пользователя по identity.
func (s *Storage) GetUser(ctx context.Context, identity string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE identity = $1`
	return s.queryUser(ctx, op, query, identity)
}

// UpdateUser сохраняет изменённого пользователя, если его версия не изменилась
// с момента чтения. При успехе u.Version увеличивается.
func (s *Storage) UpdateUser(ctx context.Context, u *models.User) error {
	const op = "storage.UpdateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if err := updateUser(ctx, s.DB, u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// updateUser выполняет UPDATE с проверкой версии через q (*sql.DB или *sql.Tx).
func updateUser(ctx context.Context, q querier, u *models.User) error {
	var reference, externalID sql.NullString
	if u.PaymentSession != nil {
		reference = sql.NullString{String: u.PaymentSession.Reference, Valid: true}
		externalID = sql.NullString{String: u.PaymentSession.ExternalID, Valid: true}
	}

	query := `UPDATE users
			  SET stage = $1, consent_granted_at = $2, trial_mobile_number = $3,
			      payment_mobile_number = $4, has_used_trial = $5,
			      trial_messages_used_today = $6, daily_message_count = $7,
			      counters_reset_at = $8, last_selected_plan_type = $9, plan_type = $10,
			      subscription_status = $11, subscription_amount = $12,
			      subscription_expiry = $13, payment_reference = $14,
			      payment_external_id = $15, version = version + 1, updated_at = NOW()
			  WHERE identity = $16 AND version = $17
			  RETURNING updated_at`
	var updatedAt time.Time
	err := q.QueryRowContext(ctx, query,
		u.Stage, u.ConsentGrantedAt, u.TrialMobileNumber,
		u.PaymentMobileNumber, u.HasUsedTrial,
		u.TrialMessagesUsedToday, u.DailyMessageCount,
		u.CountersResetAt, u.LastSelectedPlanType, u.Subscription.PlanType,
		u.Subscription.Status, u.Subscription.Amount,
		u.Subscription.ExpiryDate, reference,
		externalID, u.Identity, u.Version,
	).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	u.Version++
	u.UpdatedAt = updatedAt
	return nil
}

// FindTrialUserByNumber ищет другого пользователя, уже израсходовавшего
// пробный период на этом номере.
func (s *Storage) FindTrialUserByNumber(ctx context.Context, number, excludeIdentity string) (*models.User, error) {
	const op = "storage.FindTrialUserByNumber"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE trial_mobile_number = $1 AND has_used_trial AND identity <> $2
			  LIMIT 1`
	return s.queryUser(ctx, op, query, number, excludeIdentity)
}

// FindUserByPaymentReference ищет пользователя с живой платёжной сессией по reference.
func (s *Storage) FindUserByPaymentReference(ctx context.Context, reference string) (*models.User, error) {
	const op = "storage.FindUserByPaymentReference"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE payment_reference = $1 LIMIT 1`
	return s.queryUser(ctx, op, query, reference)
}

// FindUserByPaymentExternalID ищет пользователя с живой платёжной сессией по externalId.
func (s *Storage) FindUserByPaymentExternalID(ctx context.Context, externalID string) (*models.User, error) {
	const op = "storage.FindUserByPaymentExternalID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE payment_external_id = $1 LIMIT 1`
	return s.queryUser(ctx, op, query, externalID)
}

// FindSubscriptionsExpiringBetween возвращает активные подписки со сроком в (from, to],
// о которых ещё не напоминали.
func (s *Storage) FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	const op = "storage.FindSubscriptionsExpiringBetween"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE subscription_status = 'active'
			    AND subscription_expiry > $1
			    AND subscription_expiry <= $2
			    AND expiry_reminded_for IS DISTINCT FROM subscription_expiry
			  ORDER BY subscription_expiry`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkExpiryReminded отмечает, что о сроке expiry напоминание отправлено.
// Возвращает false, если отметка уже стоит или срок подписки изменился.
// Версия пользователя не меняется: поле не участвует в переходах воронки.
func (s *Storage) MarkExpiryReminded(ctx context.Context, identity string, expiry time.Time) (bool, error) {
	const op = "storage.MarkExpiryReminded"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	query := `UPDATE users
			  SET expiry_reminded_for = $2
			  WHERE identity = $1
			    AND subscription_expiry = $2
			    AND expiry_reminded_for IS DISTINCT FROM $2`
	res, err := s.DB.ExecContext(ctx, query, identity, expiry)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected > 0, nil
}

func (s *Storage) queryUser(ctx context.Context, op, query string, args ...any) (*models.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u                                     models.User
		stage, lastPlan, planType, subStatus  string
		consent, resetAt, expiry, remindedFor sql.NullTime
		reference, externalID                 sql.NullString
	)
	if err := row.Scan(&u.Identity, &stage, &consent, &u.TrialMobileNumber, &u.PaymentMobileNumber,
		&u.HasUsedTrial, &u.TrialMessagesUsedToday, &u.DailyMessageCount, &resetAt,
		&lastPlan, &planType, &subStatus, &u.Subscription.Amount,
		&expiry, &reference, &externalID, &remindedFor,
		&u.Version, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}

	parsed, err := models.ParseStage(stage)
	if err != nil {
		return nil, err
	}
	u.Stage = parsed
	u.LastSelectedPlanType, _ = models.ParsePlanType(lastPlan)
	u.Subscription.PlanType, _ = models.ParsePlanType(planType)
	u.Subscription.Status = models.SubscriptionStatus(subStatus)

	if consent.Valid {
		u.ConsentGrantedAt = &consent.Time
	}
	if resetAt.Valid {
		u.CountersResetAt = &resetAt.Time
	}
	if expiry.Valid {
		u.Subscription.ExpiryDate = &expiry.Time
	}
	if remindedFor.Valid {
		u.ExpiryRemindedFor = &remindedFor.Time
	}
	if reference.Valid {
		u.PaymentSession = &models.PaymentSession{
			Reference:  reference.String,
			ExternalID: externalID.String,
		}
	}
	return &u, nil
}
