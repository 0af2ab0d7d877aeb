package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"checkout-arbiter/internal/checkout"
	"checkout-arbiter/internal/db"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// Repository is the Postgres-backed order, cart and payment store.
type Repository struct {
	db *db.DB
}

func NewRepository(db *db.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindOrderByReference(ctx context.Context, reference string) (*checkout.Order, error) {
	return r.scanOrder(r.db.QueryRowContext(ctx, `
		SELECT id, reference, cart_id
		FROM orders
		WHERE reference = $1
	`, reference))
}

func (r *Repository) FindLatestOrderByCart(ctx context.Context, cartID int64) (*checkout.Order, error) {
	return r.scanOrder(r.db.QueryRowContext(ctx, `
		SELECT id, reference, cart_id
		FROM orders
		WHERE cart_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, cartID))
}

func (r *Repository) FindOrderByID(ctx context.Context, orderID int64) (*checkout.Order, error) {
	return r.scanOrder(r.db.QueryRowContext(ctx, `
		SELECT id, reference, cart_id
		FROM orders
		WHERE id = $1
	`, orderID))
}

func (r *Repository) scanOrder(row *sql.Row) (*checkout.Order, error) {
	var o checkout.Order
	err := row.Scan(&o.ID, &o.Reference, &o.CartID)
	if err == sql.ErrNoRows {
		return nil, checkout.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) GetCart(ctx context.Context, cartID int64) (*checkout.Cart, error) {
	var c checkout.Cart
	err := r.db.QueryRowContext(ctx, `
		SELECT id, is_active, reserved_reference
		FROM carts
		WHERE id = $1
	`, cartID).Scan(&c.ID, &c.Active, &c.ReservedReference)

	if err == sql.ErrNoRows {
		return nil, checkout.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// RecordOrderReference stores the reference on the cart's payment record.
// Writing the same reference twice is a no-op.
func (r *Repository) RecordOrderReference(ctx context.Context, cartID int64, reference string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET payment_reference = $2, updated_at = NOW()
		WHERE id = $1
		  AND payment_reference <> $2
	`, cartID, reference)
	return err
}

// PaymentInformation lists the enabled payment methods and the totals of
// an active cart.
func (r *Repository) PaymentInformation(ctx context.Context, cartID int64) (*checkout.PaymentDetails, error) {
	var totals checkout.Totals
	err := r.db.QueryRowContext(ctx, `
		SELECT grand_total::text, currency
		FROM carts
		WHERE id = $1
		  AND is_active
	`, cartID).Scan(&totals.GrandTotal, &totals.Currency)

	if err == sql.ErrNoRows {
		return nil, checkout.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT code, title
		FROM payment_methods
		WHERE enabled
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := &checkout.PaymentDetails{
		PaymentMethods: []checkout.PaymentMethod{},
		Totals:         &totals,
	}
	for rows.Next() {
		var m checkout.PaymentMethod
		if err := rows.Scan(&m.Code, &m.Title); err != nil {
			return nil, err
		}
		details.PaymentMethods = append(details.PaymentMethods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// SavePaymentInformation sets the payment method of an active cart.
// A converted or unknown cart yields ErrNotFound.
func (r *Repository) SavePaymentInformation(ctx context.Context, cartID int64, p checkout.Payment) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET payment_method = $2, updated_at = NOW()
		WHERE id = $1
		  AND is_active
	`, cartID, p.Method)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, checkout.ErrNotFound
	}
	return true, nil
}

// PlaceOrder converts an active cart into an order. The cart row is
// locked for the duration of the transaction, so two concurrent
// placements of the same cart produce one order and one ErrNotFound.
func (r *Repository) PlaceOrder(ctx context.Context, cartID int64, p checkout.Payment) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var (
		active   bool
		reserved string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT is_active, reserved_reference
		FROM carts
		WHERE id = $1
		FOR UPDATE
	`, cartID).Scan(&active, &reserved)

	if err == sql.ErrNoRows || (err == nil && !active) {
		return 0, checkout.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if reserved == "" {
		var seq int64
		if err := tx.QueryRowContext(ctx, `SELECT nextval('order_reference_seq')`).Scan(&seq); err != nil {
			return 0, fmt.Errorf("reserve order reference: %w", err)
		}
		reserved = strconv.FormatInt(seq, 10)

		if _, err := tx.ExecContext(ctx, `
			UPDATE carts
			SET reserved_reference = $2
			WHERE id = $1
		`, cartID, reserved); err != nil {
			return 0, err
		}
	}

	var orderID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (reference, cart_id, payment_method)
		VALUES ($1, $2, $3)
		RETURNING id
	`, reserved, cartID, p.Method).Scan(&orderID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return 0, checkout.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE carts
		SET is_active = false, payment_method = $2, payment_reference = $3, updated_at = NOW()
		WHERE id = $1
	`, cartID, p.Method, reserved); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return orderID, nil
}

func (r *Repository) CartStatus(ctx context.Context, cartID int64) (*checkout.CartStatus, error) {
	s := checkout.CartStatus{CartID: cartID}
	err := r.db.QueryRowContext(ctx, `
		SELECT c.is_active,
		       COALESCE((SELECT o.id FROM orders o WHERE o.cart_id = c.id ORDER BY o.id DESC LIMIT 1), 0)
		FROM carts c
		WHERE c.id = $1
	`, cartID).Scan(&s.Active, &s.OrderID)

	if err == sql.ErrNoRows {
		return nil, checkout.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AddCartItem appends an item to an active cart.
func (r *Repository) AddCartItem(ctx context.Context, cartID int64, sku string, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, sku, qty)
		SELECT id, $2, $3
		FROM carts
		WHERE id = $1
		  AND is_active
	`, cartID, sku, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return checkout.ErrNotFound
	}
	return nil
}
