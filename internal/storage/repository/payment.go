package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-bot/internal/models"
)

const paymentColumns = `reference_id, external_id, owner, plan_type, amount, currency,
	phone_number, status, reason, raw_callback, created_at, updated_at`

// CreatePaymentRequest сохраняет новый платёжный запрос в статусе pending.
func (s *Storage) CreatePaymentRequest(ctx context.Context, req *models.PaymentRequest) error {
	const op = "storage.CreatePaymentRequest"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	status := req.Status
	if status == "" {
		status = models.PaymentPending
	}
	query := `INSERT INTO payment_requests (reference_id, external_id, owner, plan_type,
			      amount, currency, phone_number, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query,
		req.ReferenceID, req.ExternalID, req.Owner, req.PlanType,
		req.Amount, req.Currency, req.PhoneNumber, status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Status = status
	return nil
}

// GetPaymentRequest возвращает платёжный запрос по referenceId.
func (s *Storage) GetPaymentRequest(ctx context.Context, referenceID string) (*models.PaymentRequest, error) {
	const op = "storage.GetPaymentRequest"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + paymentColumns + ` FROM payment_requests WHERE reference_id = $1`
	return s.queryPayment(ctx, op, query, referenceID)
}

// FindPaymentRequestByExternalID возвращает самый свежий платёжный запрос с данным externalId.
func (s *Storage) FindPaymentRequestByExternalID(ctx context.Context, externalID string) (*models.PaymentRequest, error) {
	const op = "storage.FindPaymentRequestByExternalID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payment_requests
			  WHERE external_id = $1
			  ORDER BY created_at DESC
			  LIMIT 1`
	return s.queryPayment(ctx, op, query, externalID)
}

// UpdatePaymentStatus записывает статус из колбэка, пока запрос не в терминальном статусе.
// applied == false означает, что запрос уже завершён и повторный колбэк нужно игнорировать.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, referenceID string, status models.PaymentStatus,
	reason string, raw []byte) (bool, error) {
	const op = "storage.UpdatePaymentStatus"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	applied, err := updatePaymentStatus(ctx, s.DB, referenceID, status, reason, raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return applied, nil
}

// SettlePayment в одной транзакции переводит запрос в терминальный статус
// и сохраняет пользователя u с проверкой версии.
// applied == false означает, что запрос уже завершён, и ничего не записано.
// Если версия пользователя устарела, транзакция откатывается и возвращается ErrConflict:
// запрос остаётся незавершённым, и повторный колбэк применится заново.
func (s *Storage) SettlePayment(ctx context.Context, referenceID string, status models.PaymentStatus,
	reason string, raw []byte, u *models.User) (applied bool, err error) {
	const op = "storage.SettlePayment"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	applied, err = updatePaymentStatus(ctx, tx, referenceID, status, reason, raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !applied {
		_ = tx.Rollback()
		return false, nil
	}
	version := u.Version
	if err = updateUser(ctx, tx, u); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		u.Version = version
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func updatePaymentStatus(ctx context.Context, q querier, referenceID string, status models.PaymentStatus,
	reason string, raw []byte) (bool, error) {
	query := `UPDATE payment_requests
			  SET status = $2, reason = $3, raw_callback = $4, updated_at = NOW()
			  WHERE reference_id = $1
			    AND status NOT IN ($5, $6)`
	res, err := q.ExecContext(ctx, query, referenceID, status, reason, nullJSON(raw),
		models.PaymentSuccessful, models.PaymentFailed)
	if err != nil {
		return false, err
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (s *Storage) queryPayment(ctx context.Context, op, query string, args ...any) (*models.PaymentRequest, error) {
	var (
		p        models.PaymentRequest
		planType string
		status   string
		raw      []byte
	)
	err := s.DB.QueryRowContext(ctx, query, args...).Scan(&p.ReferenceID, &p.ExternalID, &p.Owner,
		&planType, &p.Amount, &p.Currency, &p.PhoneNumber, &status, &p.Reason, &raw,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.PlanType, _ = models.ParsePlanType(planType)
	p.Status = models.PaymentStatus(status)
	p.RawCallback = raw
	return &p, nil
}

// nullJSON превращает пустой колбэк в NULL, иначе jsonb отвергнет пустую строку.
func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
