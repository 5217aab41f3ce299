package contract

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines contract persistence operations. A contract is always read and written
// as one document.
type Repository interface {
	// Create assigns the next code under an exclusive lock and inserts the aggregate
	Create(ctx context.Context, c *Contract, codePrefix string) error
	GetByID(ctx context.Context, id uuid.UUID) (*Contract, error)
	List(ctx context.Context, limit, offset int) ([]*Contract, error)
	Count(ctx context.Context) (int64, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	ExistsByOrderNo(ctx context.Context, orderNo string) (bool, error)

	// Update writes the whole aggregate if the stored version is c.Version-1
	Update(ctx context.Context, c *Contract) error

	// LockForUpdate acquires a row lock for the remainder of the transaction
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Contract, error)
	WithTx(tx pgx.Tx) Repository
}
