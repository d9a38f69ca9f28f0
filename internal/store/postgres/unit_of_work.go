package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lavapay/internal/store/repositories"
)

// unitOfWork implements repositories.UnitOfWork on a pgx transaction. The
// repositories handed out by a transaction share its connection, so a payment
// approval and the subscription activation it triggers commit together.
type unitOfWork struct {
	db *pgxpool.Pool
}

// NewUnitOfWork creates a unit of work over the pool
func NewUnitOfWork(db *pgxpool.Pool) repositories.UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Begin(ctx context.Context) (repositories.Transaction, error) {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &transaction{tx: tx}, nil
}

type transaction struct {
	tx pgx.Tx
}

func (t *transaction) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *transaction) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func (t *transaction) Payments() repositories.PaymentRepository {
	return &paymentRepository{db: t.tx}
}

func (t *transaction) Subscriptions() repositories.SubscriptionRepository {
	return &subscriptionRepository{db: t.tx}
}
