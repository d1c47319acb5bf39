package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlenko/bookery/internal/repository"
)

func TestRunLedgerTxRetriesOnceOnLockConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	attempts := 0
	err = runLedgerTx(context.Background(), db, func(tx *sql.Tx) error {
		attempts++
		if attempts == 1 {
			return &mysql.MySQLError{Number: 1213}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLedgerTxConflictAfterSecondAbort(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectRollback()

	attempts := 0
	err = runLedgerTx(context.Background(), db, func(tx *sql.Tx) error {
		attempts++
		return &mysql.MySQLError{Number: 1205}
	})
	assert.ErrorIs(t, err, repository.ErrCapacityConflict)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLedgerTxRollsBackAndSurfacesError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	attempts := 0
	err = runLedgerTx(context.Background(), db, func(tx *sql.Tx) error {
		attempts++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ledgerTestHandler builds an OwnerHandler over a mocked DB; the
// publisher stays nil so no broker is contacted.
func ledgerTestHandler(t *testing.T) (*OwnerHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewOwnerHandler(
		repository.NewBusinessRepo(db),
		repository.NewExperienceRepo(db),
		repository.NewEventRepo(db),
		repository.NewSessionRepo(db),
		repository.NewGuestRepo(db),
		repository.NewAddOnRepo(db),
		repository.NewBookingRepo(db),
		nil,
	)
	return h, mock, func() { _ = db.Close() }
}

func ledgerRequest(method, body, paramName, paramValue string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames(paramName)
	c.SetParamValues(paramValue)
	c.Set("user_id", "1")
	return c, rec
}

func sessionLockRows(committed int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "event_id", "starts_at", "ends_at", "price_cents", "max_capacity", "committed_qty", "created_at", "updated_at",
	}).AddRow(5, 3, "2026-05-01 10:00:00", "2026-05-01 12:00:00", nil, nil, committed, "2026-01-01 00:00:00", "2026-01-01 00:00:00")
}

func fallbackChainRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "base_price_cents", "max_capacity", "e_id", "e_title", "e_max_capacity", "business_id", "owner_user_id",
	}).AddRow(3, "Evening Tour", 1900, nil, 2, "City Walks", 10, 4, 1)
}

func bookingRows(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "session_id", "guest_id", "quantity", "status", "total_price_cents", "created_at", "updated_at", "owner_user_id",
	}).AddRow(11, 5, 7, 2, status, 3800, "2026-02-01 09:00:00", "2026-02-01 09:00:00", 1)
}

func itemRows(quantity int, total int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "booking_id", "item_type", "add_on_id", "quantity", "unit_price_cents", "total_price_cents",
	}).AddRow(21, 11, "SESSION", nil, quantity, 1900, total)
}

// The booking insert, the line items and the counter adjustment must
// all land inside one transaction; the ordered expectations prove the
// counter moves before the commit.
func TestCreateBookingWritesCounterInSameTransaction(t *testing.T) {
	h, mock, done := ledgerTestHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(5).WillReturnRows(sessionLockRows(2))
	mock.ExpectQuery("FROM events ev").WithArgs(3).WillReturnRows(fallbackChainRows())
	mock.ExpectQuery("SELECT business_id FROM guests").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"business_id"}).AddRow(4))
	mock.ExpectExec("INSERT INTO bookings").WithArgs(5, 7, 2, "CONFIRMED", 3800).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM bookings").WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow("2026-02-01 09:00:00", "2026-02-01 09:00:00"))
	mock.ExpectExec("INSERT INTO booking_items").WithArgs(11, "SESSION", nil, 2, 1900, 3800).
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectExec("UPDATE sessions").WithArgs(2, 5, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := ledgerRequest(http.MethodPost, `{"guest_id":7,"quantity":2}`, "id", "5")
	require.NoError(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CONFIRMED"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A gate rejection aborts before any write and rolls the transaction
// back with no partial state.
func TestCreateBookingRejectionLeavesNoPartialState(t *testing.T) {
	h, mock, done := ledgerTestHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(5).WillReturnRows(sessionLockRows(8))
	mock.ExpectQuery("FROM events ev").WithArgs(3).WillReturnRows(fallbackChainRows())
	mock.ExpectQuery("SELECT business_id FROM guests").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"business_id"}).AddRow(4))
	mock.ExpectRollback()

	c, rec := ledgerRequest(http.MethodPost, `{"guest_id":7,"quantity":3}`, "id", "5")
	require.NoError(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"spots_available":2`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuantityChangeAllowedOnCompletedBooking(t *testing.T) {
	h, mock, done := ledgerTestHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings bk").WithArgs(11).WillReturnRows(bookingRows("COMPLETED"))
	mock.ExpectQuery("FOR UPDATE").WithArgs(5).WillReturnRows(sessionLockRows(2))
	mock.ExpectQuery("FROM events ev").WithArgs(3).WillReturnRows(fallbackChainRows())
	mock.ExpectQuery("FROM bookings bk").WithArgs(11).WillReturnRows(bookingRows("COMPLETED"))
	mock.ExpectQuery("FROM booking_items").WithArgs(11).WillReturnRows(itemRows(2, 3800))
	mock.ExpectExec("UPDATE booking_items").WithArgs(3, 3, 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET quantity").WithArgs(3, 5700, 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE sessions").WithArgs(1, 5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM booking_items").WithArgs(11).WillReturnRows(itemRows(3, 5700))
	mock.ExpectCommit()

	c, rec := ledgerRequest(http.MethodPatch, `{"quantity":3}`, "id", "11")
	require.NoError(t, h.ChangeBookingQuantity(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quantity":3`)
	assert.Contains(t, rec.Body.String(), `"total_price_cents":5700`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuantityChangeRejectedOnCancelledBooking(t *testing.T) {
	h, mock, done := ledgerTestHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings bk").WithArgs(11).WillReturnRows(bookingRows("CANCELLED"))
	mock.ExpectQuery("FOR UPDATE").WithArgs(5).WillReturnRows(sessionLockRows(2))
	mock.ExpectQuery("FROM events ev").WithArgs(3).WillReturnRows(fallbackChainRows())
	mock.ExpectQuery("FROM bookings bk").WithArgs(11).WillReturnRows(bookingRows("CANCELLED"))
	mock.ExpectRollback()

	c, rec := ledgerRequest(http.MethodPatch, `{"quantity":3}`, "id", "11")
	require.NoError(t, h.ChangeBookingQuantity(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "booking is cancelled")
	assert.NoError(t, mock.ExpectationsWereMet())
}
