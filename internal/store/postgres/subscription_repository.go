package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lavapay/internal/domain/subscription"
	"lavapay/internal/store/repositories"
)

// subscriptionRepository implements repositories.SubscriptionRepository
type subscriptionRepository struct {
	db querier
}

// NewSubscriptionRepository creates a subscription repository backed by the pool
func NewSubscriptionRepository(db *pgxpool.Pool) repositories.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) FindByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	var s subscription.Subscription
	err := r.db.QueryRow(ctx, `
		SELECT id, branch_id, status, period_start, period_end, past_due, updated_at
		  FROM subscriptions
		 WHERE id = $1`, id).
		Scan(&s.ID, &s.BranchID, &s.Status, &s.PeriodStart, &s.PeriodEnd, &s.PastDue, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) Save(ctx context.Context, s *subscription.Subscription) error {
	_, err := r.db.Exec(ctx, `
		UPDATE subscriptions
		   SET status = $1, period_start = $2, period_end = $3, past_due = $4, updated_at = $5
		 WHERE id = $6`,
		string(s.Status), s.PeriodStart, s.PeriodEnd, s.PastDue, s.UpdatedAt, s.ID)
	return err
}
