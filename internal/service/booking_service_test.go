package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/internal/events"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/repository"
)

const (
	testOfferID   = "5f6e1f5c-4c43-4b0e-9a36-0d7c9e7c1a01"
	testBookingID = "9b2d7a8e-3c1f-4e55-8f2a-6c0b1d4e2f02"
	testDriverID  = "driver-1"
	testPassenger = "passenger-1"
)

var (
	offerCols   = []string{"id", "driver_id", "from_city", "to_city", "departure_time", "seats", "price", "notes", "is_active", "created_at", "updated_at"}
	bookingCols = []string{"id", "passenger_id", "offer_id", "seats", "status", "total_price", "message", "created_at", "updated_at"}

	lockOfferSQL   = `SELECT (.+) FROM offers WHERE id = \$1 FOR UPDATE`
	lockBookingSQL = `SELECT (.+) FROM bookings WHERE id = \$1 FOR UPDATE`
	sumPendingSQL  = `SELECT COALESCE\(SUM\(seats\), 0\) FROM bookings`
	adjustSeatsSQL = `UPDATE offers SET seats = seats \+ \$1`
	updateStatus   = `UPDATE bookings\s+SET status = \$1`
)

type recordedNotification struct {
	userID string
	kind   string
}

type stubNotifier struct {
	NotificationService
	sent []recordedNotification
	err  error
}

func (s *stubNotifier) Notify(_ context.Context, userID, notificationType, _, _ string, _ interface{}) error {
	s.sent = append(s.sent, recordedNotification{userID: userID, kind: notificationType})
	return s.err
}

type stubPublisher struct {
	keys []string
	err  error
}

func (p *stubPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.keys = append(p.keys, routingKey)
	return p.err
}

func (p *stubPublisher) Close() error { return nil }

type bookingFixture struct {
	svc       BookingService
	mock      sqlmock.Sqlmock
	notifier  *stubNotifier
	publisher *stubPublisher
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })

	db := sqlx.NewDb(rawDB, "sqlmock")
	notifier := &stubNotifier{}
	publisher := &stubPublisher{}

	svc := NewBookingService(
		db,
		repository.NewBookingRepository(db),
		repository.NewOfferRepository(db),
		repository.NewUserRepository(db),
		NewPricingService(),
		notifier,
		publisher,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return &bookingFixture{svc: svc, mock: mock, notifier: notifier, publisher: publisher}
}

func offerRow(seats int, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(offerCols).AddRow(
		testOfferID, testDriverID, "Baghdad", "Basra", now.Add(48*time.Hour),
		seats, 15000.0, nil, active, now, now)
}

func bookingRow(status string, seats int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(bookingCols).AddRow(
		testBookingID, testPassenger, testOfferID, seats, status, 15000.0*float64(seats), nil, now, now)
}

func pendingSum(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"coalesce"}).AddRow(n)
}

func assertAPIError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := apperrors.As(err)
	require.True(t, ok, "expected *APIError, got %T: %v", err, err)
	assert.Equal(t, status, apiErr.StatusCode)
	if message != "" {
		assert.Equal(t, message, apiErr.Message)
	}
}

func TestCreateBooking_Success(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockOfferSQL).WithArgs(testOfferID).WillReturnRows(offerRow(3, true))
	f.mock.ExpectQuery(sumPendingSQL).WithArgs(testOfferID, models.BookingStatusPending, "").WillReturnRows(pendingSum(0))
	f.mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	resp, err := f.svc.CreateBooking(context.Background(), testPassenger, &models.CreateBookingRequest{
		OfferID: testOfferID,
		Seats:   2,
		Message: "two of us",
	})
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusPending, resp.Status)
	assert.Equal(t, 2, resp.Seats)
	assert.Equal(t, 30000.0, resp.TotalPrice)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "two of us", *resp.Message)
	assert.Equal(t, 3, resp.Offer.Seats, "creating a booking must not touch the seat counter")

	assert.Equal(t, []recordedNotification{{userID: testDriverID, kind: models.NotificationBookingCreated}}, f.notifier.sent)
	assert.Equal(t, []string{events.BookingCreated}, f.publisher.keys)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateBooking_InsufficientSeats(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockOfferSQL).WithArgs(testOfferID).WillReturnRows(offerRow(3, true))
	f.mock.ExpectQuery(sumPendingSQL).WithArgs(testOfferID, models.BookingStatusPending, "").WillReturnRows(pendingSum(2))
	f.mock.ExpectRollback()

	_, err := f.svc.CreateBooking(context.Background(), testPassenger, &models.CreateBookingRequest{OfferID: testOfferID, Seats: 2})

	assertAPIError(t, err, http.StatusBadRequest, "Only 1 seat(s) available")
	assert.Empty(t, f.notifier.sent)
	assert.Empty(t, f.publisher.keys)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateBooking_RejectsInvalidOffers(t *testing.T) {
	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		userID  string
		status  int
		message string
	}{
		{
			name:    "missing offer",
			rows:    sqlmock.NewRows(offerCols),
			userID:  testPassenger,
			status:  http.StatusNotFound,
			message: "offer not found",
		},
		{
			name:    "inactive offer",
			rows:    offerRow(3, false),
			userID:  testPassenger,
			status:  http.StatusBadRequest,
			message: "Offer is not active",
		},
		{
			name:    "driver books own offer",
			rows:    offerRow(3, true),
			userID:  testDriverID,
			status:  http.StatusBadRequest,
			message: "You cannot book your own offer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)

			f.mock.ExpectBegin()
			f.mock.ExpectQuery(lockOfferSQL).WithArgs(testOfferID).WillReturnRows(tt.rows)
			f.mock.ExpectRollback()

			_, err := f.svc.CreateBooking(context.Background(), tt.userID, &models.CreateBookingRequest{OfferID: testOfferID, Seats: 1})

			assertAPIError(t, err, tt.status, tt.message)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestCreateBooking_DatabaseErrorIsReturnedRaw(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockOfferSQL).WithArgs(testOfferID).WillReturnError(errors.New("connection reset"))
	f.mock.ExpectRollback()

	_, err := f.svc.CreateBooking(context.Background(), testPassenger, &models.CreateBookingRequest{OfferID: testOfferID, Seats: 1})

	require.Error(t, err)
	_, isAPIError := apperrors.As(err)
	assert.False(t, isAPIError)
}

func TestUpdateBookingStatus_AcceptDecrementsSeats(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockBookingSQL).WithArgs(testBookingID).WillReturnRows(bookingRow(models.BookingStatusPending, 2))
	f.mock.ExpectQuery(lockOfferSQL).WithArgs(testOfferID).WillReturnRows(offerRow(3, true))
	f.mock.ExpectQuery(sumPendingSQL).WithArgs(testOfferID, models.BookingStatusPending, testBookingID).WillReturnRows(pendingSum(0))
	f.mock.ExpectExec(adjustSeatsSQL).WithArgs(-2, sqlmock.AnyArg(), testOfferID).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(updateStatus).WithArgs(models.BookingStatusAccepted, sqlmock.AnyArg(), sqlmock.AnyArg(), testBookingID).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	resp, err := f.svc.UpdateBookingStatus(context.Background(), testBookingID, testDriverID, models.RoleUser,
		&models.UpdateBookingStatusRequest{Status: models.BookingStatusAccepted})
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusAccepted, resp.Status)
	assert.Equal(t, 1, resp.Offer.Seats)
	assert.Equal(t, []recordedNotification{{userID: testPassenger, kind: models.NotificationBookingAccepted}}, f.notifier.sent)
	assert.Equal(t, []string{events.BookingAccepted}, f.publisher.keys)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateBookingStatus_AcceptRechecksAvailability(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockBookingSQL).WithArgs(testBookingID).WillReturnRows(bookingRow(models.BookingStatusPending, 2))
	f.mock.ExpectQuery(lockOfferSQL).WithArgs(testOfferID).WillReturnRows(offerRow(3, true))
	f.mock.ExpectQuery(sumPendingSQL).WithArgs(testOfferID, models.BookingStatusPending, testBookingID).WillReturnRows(pendingSum(2))
	f.mock.ExpectRollback()

	_, err := f.svc.UpdateBookingStatus(context.Background(), testBookingID, testDriverID, models.RoleUser,
		&models.UpdateBookingStatusRequest{Status: models.BookingStatusAccepted})

	assertAPIError(t, err, http.StatusBadRequest, "Only 1 seat(s) available")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateBookingStatus_SeatUnderflowGuard(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockBookingSQL).WithArgs(testBookingID).WillReturnRows(bookingRow(models.BookingStatusPending, 2))
	f.mock.ExpectQuery(lockOfferSQL).WithArgs(testOfferID).WillReturnRows(offerRow(2, true))
	f.mock.ExpectQuery(sumPendingSQL).WillReturnRows(pendingSum(0))
	f.mock.ExpectExec(adjustSeatsSQL).WithArgs(-2, sqlmock.AnyArg(), testOfferID).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectRollback()

	_, err := f.svc.UpdateBookingStatus(context.Background(), testBookingID, testDriverID, models.RoleUser,
		&models.UpdateBookingStatusRequest{Status: models.BookingStatusAccepted})

	assertAPIError(t, err, http.StatusBadRequest, "Only 2 seat(s) available")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateBookingStatus_DriverCancelOfAcceptedRestoresSeats(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockBookingSQL).WithArgs(testBookingID).WillReturnRows(bookingRow(models.BookingStatusAccepted, 2))
	f.mock.ExpectQuery(lockOfferSQL).WithArgs(testOfferID).WillReturnRows(offerRow(1, true))
	f.mock.ExpectExec(adjustSeatsSQL).WithArgs(2, sqlmock.AnyArg(), testOfferID).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(updateStatus).WithArgs(models.BookingStatusCancelled, sqlmock.AnyArg(), sqlmock.AnyArg(), testBookingID).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	resp, err := f.svc.UpdateBookingStatus(context.Background(), testBookingID, testDriverID, models.RoleUser,
		&models.UpdateBookingStatusRequest{Status: models.BookingStatusCancelled})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Offer.Seats)
	assert.Equal(t, []string{events.BookingCancelled}, f.publisher.keys)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateBookingStatus_StatusOnlyTransitions(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		key  string
	}{
		{"reject pending", models.BookingStatusPending, models.BookingStatusRejected, events.BookingRejected},
		{"complete accepted", models.BookingStatusAccepted, models.BookingStatusCompleted, events.BookingCompleted},
		{"driver cancels pending", models.BookingStatusPending, models.BookingStatusCancelled, events.BookingCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)

			f.mock.ExpectBegin()
			f.mock.ExpectQuery(lockBookingSQL).WillReturnRows(bookingRow(tt.from, 2))
			f.mock.ExpectQuery(lockOfferSQL).WillReturnRows(offerRow(3, true))
			f.mock.ExpectExec(updateStatus).WithArgs(tt.to, sqlmock.AnyArg(), sqlmock.AnyArg(), testBookingID).WillReturnResult(sqlmock.NewResult(0, 1))
			f.mock.ExpectCommit()

			resp, err := f.svc.UpdateBookingStatus(context.Background(), testBookingID, testDriverID, models.RoleUser,
				&models.UpdateBookingStatusRequest{Status: tt.to})
			require.NoError(t, err)

			assert.Equal(t, tt.to, resp.Status)
			assert.Equal(t, 3, resp.Offer.Seats)
			assert.Equal(t, []string{tt.key}, f.publisher.keys)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateBookingStatus_TotalPriceOverride(t *testing.T) {
	f := newBookingFixture(t)
	override := 25000.0

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockBookingSQL).WillReturnRows(bookingRow(models.BookingStatusAccepted, 2))
	f.mock.ExpectQuery(lockOfferSQL).WillReturnRows(offerRow(1, true))
	f.mock.ExpectExec(updateStatus).WithArgs(models.BookingStatusCompleted, override, sqlmock.AnyArg(), testBookingID).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	resp, err := f.svc.UpdateBookingStatus(context.Background(), testBookingID, testDriverID, models.RoleUser,
		&models.UpdateBookingStatusRequest{Status: models.BookingStatusCompleted, TotalPrice: &override})
	require.NoError(t, err)

	assert.Equal(t, override, resp.TotalPrice)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateBookingStatus_AdminMayUpdate(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockBookingSQL).WillReturnRows(bookingRow(models.BookingStatusPending, 1))
	f.mock.ExpectQuery(lockOfferSQL).WillReturnRows(offerRow(3, true))
	f.mock.ExpectExec(updateStatus).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	_, err := f.svc.UpdateBookingStatus(context.Background(), testBookingID, "admin-1", models.RoleAdmin,
		&models.UpdateBookingStatusRequest{Status: models.BookingStatusRejected})
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateBookingStatus_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		userID  string
		status  int
		message string
	}{
		{
			name:   "passenger cannot accept",
			from:   models.BookingStatusPending,
			to:     models.BookingStatusAccepted,
			userID: testPassenger,
			status: http.StatusForbidden,
		},
		{
			name:    "unknown status",
			from:    models.BookingStatusPending,
			to:      "boarding",
			userID:  testDriverID,
			status:  http.StatusBadRequest,
			message: "invalid status: boarding",
		},
		{
			name:    "pending cannot complete",
			from:    models.BookingStatusPending,
			to:      models.BookingStatusCompleted,
			userID:  testDriverID,
			status:  http.StatusBadRequest,
			message: "cannot transition from pending to completed",
		},
		{
			name:    "terminal state",
			from:    models.BookingStatusRejected,
			to:      models.BookingStatusAccepted,
			userID:  testDriverID,
			status:  http.StatusBadRequest,
			message: "cannot transition from rejected to accepted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)

			f.mock.ExpectBegin()
			f.mock.ExpectQuery(lockBookingSQL).WillReturnRows(bookingRow(tt.from, 1))
			f.mock.ExpectQuery(lockOfferSQL).WillReturnRows(offerRow(3, true))
			f.mock.ExpectRollback()

			_, err := f.svc.UpdateBookingStatus(context.Background(), testBookingID, tt.userID, models.RoleUser,
				&models.UpdateBookingStatusRequest{Status: tt.to})

			assertAPIError(t, err, tt.status, tt.message)
			assert.Empty(t, f.publisher.keys)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateBookingStatus_BookingNotFound(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockBookingSQL).WillReturnRows(sqlmock.NewRows(bookingCols))
	f.mock.ExpectRollback()

	_, err := f.svc.UpdateBookingStatus(context.Background(), testBookingID, testDriverID, models.RoleUser,
		&models.UpdateBookingStatusRequest{Status: models.BookingStatusAccepted})

	assertAPIError(t, err, http.StatusNotFound, "booking not found")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCancelBooking_AcceptedRestoresSeats(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockBookingSQL).WillReturnRows(bookingRow(models.BookingStatusAccepted, 2))
	f.mock.ExpectQuery(lockOfferSQL).WillReturnRows(offerRow(1, true))
	f.mock.ExpectExec(adjustSeatsSQL).WithArgs(2, sqlmock.AnyArg(), testOfferID).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(updateStatus).WithArgs(models.BookingStatusCancelled, sqlmock.AnyArg(), sqlmock.AnyArg(), testBookingID).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	resp, err := f.svc.CancelBooking(context.Background(), testBookingID, testPassenger, models.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusCancelled, resp.Status)
	assert.Equal(t, 3, resp.Offer.Seats)
	assert.Equal(t, []recordedNotification{{userID: testDriverID, kind: models.NotificationBookingCancelled}}, f.notifier.sent)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCancelBooking_PendingLeavesSeats(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockBookingSQL).WillReturnRows(bookingRow(models.BookingStatusPending, 2))
	f.mock.ExpectQuery(lockOfferSQL).WillReturnRows(offerRow(3, true))
	f.mock.ExpectExec(updateStatus).WithArgs(models.BookingStatusCancelled, sqlmock.AnyArg(), sqlmock.AnyArg(), testBookingID).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	resp, err := f.svc.CancelBooking(context.Background(), testBookingID, testPassenger, models.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Offer.Seats)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCancelBooking_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		userID  string
		role    string
		status  int
		message string
	}{
		{"driver is not the passenger", models.BookingStatusPending, testDriverID, models.RoleUser, http.StatusForbidden, ""},
		{"already cancelled", models.BookingStatusCancelled, testPassenger, models.RoleUser, http.StatusBadRequest, "Booking is already cancelled"},
		{"already completed", models.BookingStatusCompleted, testPassenger, models.RoleUser, http.StatusBadRequest, "Booking is already completed"},
		{"already rejected", models.BookingStatusRejected, "admin-1", models.RoleAdmin, http.StatusBadRequest, "Booking is already rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)

			f.mock.ExpectBegin()
			f.mock.ExpectQuery(lockBookingSQL).WillReturnRows(bookingRow(tt.from, 1))
			f.mock.ExpectQuery(lockOfferSQL).WillReturnRows(offerRow(3, true))
			f.mock.ExpectRollback()

			_, err := f.svc.CancelBooking(context.Background(), testBookingID, tt.userID, tt.role)

			assertAPIError(t, err, tt.status, tt.message)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestSideEffectFailuresDoNotFailTheRequest(t *testing.T) {
	f := newBookingFixture(t)
	f.notifier.err = errors.New("notifications table locked")
	f.publisher.err = errors.New("broker unreachable")

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockBookingSQL).WillReturnRows(bookingRow(models.BookingStatusPending, 1))
	f.mock.ExpectQuery(lockOfferSQL).WillReturnRows(offerRow(3, true))
	f.mock.ExpectExec(updateStatus).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	resp, err := f.svc.CancelBooking(context.Background(), testBookingID, testPassenger, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, resp.Status)
	assert.Len(t, f.notifier.sent, 1)
	assert.Len(t, f.publisher.keys, 1)
}

func TestGetAvailableSeats(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectQuery(`SELECT (.+) FROM offers WHERE id = \$1`).WithArgs(testOfferID).WillReturnRows(offerRow(3, true))
	f.mock.ExpectQuery(sumPendingSQL).WithArgs(testOfferID, models.BookingStatusPending, "").WillReturnRows(pendingSum(2))

	available, err := f.svc.GetAvailableSeats(context.Background(), testOfferID)
	require.NoError(t, err)
	assert.Equal(t, 1, available)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGetAvailableSeats_OfferNotFound(t *testing.T) {
	f := newBookingFixture(t)

	f.mock.ExpectQuery(`SELECT (.+) FROM offers`).WillReturnRows(sqlmock.NewRows(offerCols))

	_, err := f.svc.GetAvailableSeats(context.Background(), testOfferID)
	assertAPIError(t, err, http.StatusNotFound, "offer not found")
}

func TestListMyBookings_InvalidStatusFilter(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.ListMyBookings(context.Background(), testPassenger, "boarding", models.NewPage(1, 20))
	assertAPIError(t, err, http.StatusBadRequest, "invalid status: boarding")
}

// Offer with 3 seats: A(2) is accepted, B(2) is turned away, cancelling A
// gives the seats back.
func TestBookingLifecycle_AcceptRejectOverbookCancel(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockBookingSQL).WillReturnRows(bookingRow(models.BookingStatusPending, 2))
	f.mock.ExpectQuery(lockOfferSQL).WillReturnRows(offerRow(3, true))
	f.mock.ExpectQuery(sumPendingSQL).WillReturnRows(pendingSum(0))
	f.mock.ExpectExec(adjustSeatsSQL).WithArgs(-2, sqlmock.AnyArg(), testOfferID).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(updateStatus).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	accepted, err := f.svc.UpdateBookingStatus(ctx, testBookingID, testDriverID, models.RoleUser,
		&models.UpdateBookingStatusRequest{Status: models.BookingStatusAccepted})
	require.NoError(t, err)
	assert.Equal(t, 1, accepted.Offer.Seats)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockOfferSQL).WillReturnRows(offerRow(1, true))
	f.mock.ExpectQuery(sumPendingSQL).WillReturnRows(pendingSum(0))
	f.mock.ExpectRollback()

	_, err = f.svc.CreateBooking(ctx, "passenger-2", &models.CreateBookingRequest{OfferID: testOfferID, Seats: 2})
	assertAPIError(t, err, http.StatusBadRequest, "Only 1 seat(s) available")

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(lockBookingSQL).WillReturnRows(bookingRow(models.BookingStatusAccepted, 2))
	f.mock.ExpectQuery(lockOfferSQL).WillReturnRows(offerRow(1, true))
	f.mock.ExpectExec(adjustSeatsSQL).WithArgs(2, sqlmock.AnyArg(), testOfferID).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(updateStatus).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	cancelled, err := f.svc.CancelBooking(ctx, testBookingID, testPassenger, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 3, cancelled.Offer.Seats)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}
