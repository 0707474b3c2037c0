package order

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luxury-haiti/backend-payments/internal/common"
)

// Order is the local record of a buyer's purchase. The webhook receiver is
// the sole writer of PaymentStatus; client-reported success is never
// trusted.
type Order struct {
	ID            string
	BuyerID       string
	SellerID      string
	ProductID     string
	Quantity      int32
	UnitPrice     int64
	TotalAmount   int64
	Status        string
	PaymentStatus string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ErrNotFound is returned when no order matches the requested id.
var ErrNotFound = errors.New("order not found")

// Store reads and settles order rows.
type Store struct {
	Pool *pgxpool.Pool
}

// NewStore constructs a Store over the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// MarkPaid settles all listed orders in a single bulk update and returns the
// number of rows touched. payment_status only ever moves forward: the
// statement writes the terminal value, so a replayed delivery is a no-op
// rather than a regression.
func (s *Store) MarkPaid(ctx context.Context, ids []string) (int64, error) {
	if s == nil || s.Pool == nil {
		return 0, common.NewAppError(common.CodePersistenceFailed, "order store not configured", http.StatusInternalServerError, nil)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE orders
		    SET payment_status = 'paid', status = 'paid', updated_at = now()
		  WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return 0, wrapPersistence(err)
	}
	return tag.RowsAffected(), nil
}

// Get returns a single order row.
func (s *Store) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	if s == nil || s.Pool == nil {
		return o, common.NewAppError(common.CodePersistenceFailed, "order store not configured", http.StatusInternalServerError, nil)
	}
	row := s.Pool.QueryRow(ctx,
		`SELECT id, buyer_id, seller_id, product_id, quantity, unit_price, total_amount,
		        status, payment_status, created_at, updated_at
		   FROM orders WHERE id = $1`,
		id,
	)
	err := row.Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.ProductID, &o.Quantity, &o.UnitPrice,
		&o.TotalAmount, &o.Status, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return o, ErrNotFound
		}
		return o, wrapPersistence(err)
	}
	return o, nil
}

func wrapPersistence(err error) error {
	msg := "order update failed"
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		msg = pgErr.Message
	}
	return common.NewAppError(common.CodePersistenceFailed, msg, http.StatusInternalServerError, err)
}
