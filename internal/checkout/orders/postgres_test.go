package orders

import (
	"context"
	"errors"
	"testing"

	"checkout-arbiter/internal/checkout"
	"checkout-arbiter/internal/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return NewRepository(&db.DB{DB: conn}), mock
}

func TestFindOrderByReference(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM orders WHERE reference = \$1`).
		WithArgs("INC-501").
		WillReturnRows(sqlmock.NewRows([]string{"id", "reference", "cart_id"}).AddRow(501, "INC-501", 9))

	order, err := repo.FindOrderByReference(context.Background(), "INC-501")

	require.NoError(t, err)
	assert.Equal(t, &checkout.Order{ID: 501, Reference: "INC-501", CartID: 9}, order)
}

func TestFindLatestOrderByCart_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM orders WHERE cart_id = \$1 ORDER BY id DESC LIMIT 1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reference", "cart_id"}))

	_, err := repo.FindLatestOrderByCart(context.Background(), 9)

	assert.ErrorIs(t, err, checkout.ErrNotFound)
}

func TestFindOrderByID_DriverErrorPropagates(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM orders WHERE id = \$1`).
		WithArgs(int64(501)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindOrderByID(context.Background(), 501)

	assert.EqualError(t, err, "connection reset")
	assert.NotErrorIs(t, err, checkout.ErrNotFound)
}

func TestGetCart(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM carts WHERE id = \$1`).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active", "reserved_reference"}).AddRow(12, true, "INC-900"))

	cart, err := repo.GetCart(context.Background(), 12)

	require.NoError(t, err)
	assert.Equal(t, &checkout.Cart{ID: 12, Active: true, ReservedReference: "INC-900"}, cart)
}

func TestRecordOrderReference(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE carts SET payment_reference = \$2`).
		WithArgs(int64(9), "INC-501").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.RecordOrderReference(context.Background(), 9, "INC-501"))
}

func TestPaymentInformation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT grand_total::text, currency FROM carts`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"grand_total", "currency"}).AddRow("49.90", "EUR"))
	mock.ExpectQuery(`FROM payment_methods WHERE enabled`).
		WillReturnRows(sqlmock.NewRows([]string{"code", "title"}).
			AddRow("checkmo", "Check / Money order").
			AddRow("klarna_pay_later", "Pay later"))

	details, err := repo.PaymentInformation(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, &checkout.PaymentDetails{
		PaymentMethods: []checkout.PaymentMethod{
			{Code: "checkmo", Title: "Check / Money order"},
			{Code: "klarna_pay_later", Title: "Pay later"},
		},
		Totals: &checkout.Totals{GrandTotal: "49.90", Currency: "EUR"},
	}, details)
}

func TestPaymentInformation_InactiveCart(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM carts`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"grand_total", "currency"}))

	_, err := repo.PaymentInformation(context.Background(), 9)

	assert.ErrorIs(t, err, checkout.ErrNotFound)
}

func TestSavePaymentInformation(t *testing.T) {
	cases := map[string]struct {
		affected int64
		want     bool
		wantErr  error
	}{
		"active cart":    {affected: 1, want: true},
		"converted cart": {affected: 0, wantErr: checkout.ErrNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(`UPDATE carts SET payment_method = \$2`).
				WithArgs(int64(9), "klarna_pay_later").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			got, err := repo.SavePaymentInformation(context.Background(), 9, checkout.Payment{Method: "klarna_pay_later"})

			assert.Equal(t, tc.want, got)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPlaceOrder_ReservesReference(t *testing.T) {
	repo, mock := newMockRepo(t)
	payment := checkout.Payment{Method: "klarna_pay_later"}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM carts WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "reserved_reference"}).AddRow(true, ""))
	mock.ExpectQuery(`SELECT nextval\('order_reference_seq'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(100000501))
	mock.ExpectExec(`UPDATE carts SET reserved_reference = \$2`).
		WithArgs(int64(9), "100000501").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs("100000501", int64(9), "klarna_pay_later").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(501))
	mock.ExpectExec(`UPDATE carts SET is_active = false`).
		WithArgs(int64(9), "klarna_pay_later", "100000501").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	orderID, err := repo.PlaceOrder(context.Background(), 9, payment)

	require.NoError(t, err)
	assert.Equal(t, int64(501), orderID)
}

func TestPlaceOrder_ConvertedCart(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "reserved_reference"}).AddRow(false, "100000501"))
	mock.ExpectRollback()

	_, err := repo.PlaceOrder(context.Background(), 9, checkout.Payment{Method: "klarna_pay_later"})

	assert.ErrorIs(t, err, checkout.ErrNotFound)
}

func TestPlaceOrder_DuplicateReference(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "reserved_reference"}).AddRow(true, "100000501"))
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectRollback()

	_, err := repo.PlaceOrder(context.Background(), 9, checkout.Payment{Method: "klarna_pay_later"})

	assert.ErrorIs(t, err, checkout.ErrNotFound)
}

func TestCartStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM carts c WHERE c.id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "order_id"}).AddRow(false, 501))

	status, err := repo.CartStatus(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, &checkout.CartStatus{CartID: 9, Active: false, OrderID: 501}, status)
}

func TestAddCartItem_InactiveCart(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO cart_items`).
		WithArgs(int64(9), "SKU-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AddCartItem(context.Background(), 9, "SKU-1", 2)

	assert.ErrorIs(t, err, checkout.ErrNotFound)
}
