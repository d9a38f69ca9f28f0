package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"lavapay/internal/domain/payment"
	"lavapay/internal/store/repositories"
)

const paymentColumns = `id, subscription_id, branch_id, amount::text, currency, status, method,
	reference, invoice_no, period_start, period_end, refunded_amount::text,
	customer_id, customer_email, customer_name, metadata, created_at, updated_at`

// paymentRepository implements repositories.PaymentRepository on postgres
type paymentRepository struct {
	db querier
}

// NewPaymentRepository creates a payment repository backed by the pool
func NewPaymentRepository(db *pgxpool.Pool) repositories.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Insert(ctx context.Context, p *payment.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO payments (id, subscription_id, branch_id, amount, currency, status, method,
			reference, invoice_no, period_start, period_end, refunded_amount,
			customer_id, customer_email, customer_name, metadata, created_at, updated_at)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), $4, $5, $6, $7, $8, NULLIF($9,''), $10, $11, $12,
			NULLIF($13,''), NULLIF($14,''), NULLIF($15,''), $16, $17, $18)`,
		p.ID, p.SubscriptionID, p.BranchID, p.Amount.String(), p.Currency, string(p.Status),
		string(p.Method), p.Reference, p.InvoiceNumber, p.PeriodStart, p.PeriodEnd,
		p.RefundedAmount.String(), p.CustomerID, p.CustomerEmail, p.CustomerName,
		meta, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *paymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (r *paymentRepository) FindByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE reference = $1`, reference)
	return scanPayment(row)
}

func (r *paymentRepository) List(ctx context.Context, f repositories.PaymentFilter) ([]*payment.Payment, error) {
	where := []string{"true"}
	args := []any{}

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Method != "" {
		add("method = $%d", string(f.Method))
	}
	if f.SubscriptionID != "" {
		add("subscription_id = $%d", f.SubscriptionID)
	}
	if f.BranchID != "" {
		add("branch_id = $%d", f.BranchID)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM payments WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// UpdateStatusIf is the conditional transition every guarded lifecycle call
// rides on. Zero matched rows means the guard failed under concurrency.
func (r *paymentRepository) UpdateStatusIf(ctx context.Context, id string, from []payment.Status, to payment.Status) (bool, error) {
	fromStr := make([]string, len(from))
	for i, s := range from {
		fromStr[i] = string(s)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE payments
		   SET status = $1, updated_at = now()
		 WHERE id = $2 AND status = ANY($3)`,
		string(to), id, fromStr)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepository) ApplyRefund(ctx context.Context, id string, refundTotal decimal.Decimal, to payment.Status) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments
		   SET refunded_amount = $1, status = $2, updated_at = now()
		 WHERE id = $3 AND status = $4`,
		refundTotal.String(), string(to), id, string(payment.StatusCompleted))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepository) SetReceiptReference(ctx context.Context, id, receiptRef string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payments
		   SET metadata = coalesce(metadata, '{}'::jsonb) || jsonb_build_object('receipt_reference', $1::text),
		       updated_at = now()
		 WHERE id = $2`,
		receiptRef, id)
	return err
}

func (r *paymentRepository) FindPendingOlderThan(ctx context.Context, method payment.Method, cutoff time.Time, limit int) ([]*payment.Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+`
		  FROM payments
		 WHERE method = $1 AND status = $2 AND created_at < $3
		 ORDER BY created_at
		 LIMIT $4`,
		string(method), string(payment.StatusPending), cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var p payment.Payment
	var subID, branchID, invoiceNo, custID, custEmail, custName sql.NullString
	var periodStart, periodEnd sql.NullTime
	var amount, refunded string
	var meta []byte

	err := row.Scan(
		&p.ID, &subID, &branchID, &amount, &p.Currency, &p.Status, &p.Method,
		&p.Reference, &invoiceNo, &periodStart, &periodEnd, &refunded,
		&custID, &custEmail, &custName, &meta, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if p.RefundedAmount, err = decimal.NewFromString(refunded); err != nil {
		return nil, fmt.Errorf("parse refunded_amount: %w", err)
	}

	p.SubscriptionID = subID.String
	p.BranchID = branchID.String
	p.InvoiceNumber = invoiceNo.String
	p.CustomerID = custID.String
	p.CustomerEmail = custEmail.String
	p.CustomerName = custName.String
	if periodStart.Valid {
		p.PeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		p.PeriodEnd = &periodEnd.Time
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
	}

	return &p, nil
}
