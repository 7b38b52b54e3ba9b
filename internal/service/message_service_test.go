package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toosila/toosila-api/internal/events"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/repository"
)

func newMessageFixture(t *testing.T) (MessageService, sqlmock.Sqlmock, *stubNotifier, *stubPublisher) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })

	db := sqlx.NewDb(rawDB, "sqlmock")
	notifier := &stubNotifier{}
	publisher := &stubPublisher{}
	svc := NewMessageService(
		repository.NewMessageRepository(db),
		repository.NewUserRepository(db),
		repository.NewBookingRepository(db),
		repository.NewOfferRepository(db),
		notifier,
		publisher,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return svc, mock, notifier, publisher
}

func TestSendMessage(t *testing.T) {
	svc, mock, notifier, publisher := newMessageFixture(t)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).WithArgs(testDriverID).
		WillReturnRows(userRow(testDriverID, "driver@example.com", "x", models.RoleUser))
	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).WithArgs(testBookingID).
		WillReturnRows(bookingRow(models.BookingStatusPending, 1))
	mock.ExpectQuery(`SELECT (.+) FROM offers WHERE id = \$1`).WithArgs(testOfferID).
		WillReturnRows(offerRow(3, true))
	mock.ExpectExec(`INSERT INTO messages`).WillReturnResult(sqlmock.NewResult(0, 1))

	msg, err := svc.SendMessage(context.Background(), testPassenger, &models.SendMessageRequest{
		ReceiverID: testDriverID,
		BookingID:  testBookingID,
		Content:    " Where do we meet? ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Where do we meet?", msg.Content)
	require.NotNil(t, msg.BookingID)
	assert.Equal(t, testBookingID, *msg.BookingID)
	assert.Equal(t, []recordedNotification{{userID: testDriverID, kind: models.NotificationNewMessage}}, notifier.sent)
	assert.Equal(t, []string{events.MessageSent}, publisher.keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendMessage_Rejections(t *testing.T) {
	t.Run("to self", func(t *testing.T) {
		svc, _, _, _ := newMessageFixture(t)
		_, err := svc.SendMessage(context.Background(), testPassenger, &models.SendMessageRequest{ReceiverID: testPassenger, Content: "hi"})
		assertAPIError(t, err, http.StatusBadRequest, "You cannot message yourself")
	})

	t.Run("blank content", func(t *testing.T) {
		svc, _, _, _ := newMessageFixture(t)
		_, err := svc.SendMessage(context.Background(), testPassenger, &models.SendMessageRequest{ReceiverID: testDriverID, Content: "   "})
		assertAPIError(t, err, http.StatusBadRequest, "message content is required")
	})

	t.Run("unknown receiver", func(t *testing.T) {
		svc, mock, _, _ := newMessageFixture(t)
		mock.ExpectQuery(`SELECT (.+) FROM users`).WillReturnRows(sqlmock.NewRows(userCols))
		_, err := svc.SendMessage(context.Background(), testPassenger, &models.SendMessageRequest{ReceiverID: testDriverID, Content: "hi"})
		assertAPIError(t, err, http.StatusNotFound, "user not found")
	})

	t.Run("booking of other users", func(t *testing.T) {
		const outsider = "99999999-0000-4000-8000-000000000001"
		svc, mock, notifier, publisher := newMessageFixture(t)
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).WithArgs(testDriverID).
			WillReturnRows(userRow(testDriverID, "driver@example.com", "x", models.RoleUser))
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).WithArgs(testBookingID).
			WillReturnRows(bookingRow(models.BookingStatusAccepted, 1))
		mock.ExpectQuery(`SELECT (.+) FROM offers WHERE id = \$1`).WithArgs(testOfferID).
			WillReturnRows(offerRow(3, true))

		_, err := svc.SendMessage(context.Background(), outsider, &models.SendMessageRequest{
			ReceiverID: testDriverID,
			BookingID:  testBookingID,
			Content:    "hi",
		})
		assertAPIError(t, err, http.StatusForbidden, "")
		assert.Empty(t, notifier.sent)
		assert.Empty(t, publisher.keys)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver may message the passenger about the booking", func(t *testing.T) {
		svc, mock, _, _ := newMessageFixture(t)
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).WithArgs(testPassenger).
			WillReturnRows(userRow(testPassenger, "rider@example.com", "x", models.RoleUser))
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).WithArgs(testBookingID).
			WillReturnRows(bookingRow(models.BookingStatusAccepted, 1))
		mock.ExpectQuery(`SELECT (.+) FROM offers WHERE id = \$1`).WithArgs(testOfferID).
			WillReturnRows(offerRow(3, true))
		mock.ExpectExec(`INSERT INTO messages`).WillReturnResult(sqlmock.NewResult(0, 1))

		msg, err := svc.SendMessage(context.Background(), testDriverID, &models.SendMessageRequest{
			ReceiverID: testPassenger,
			BookingID:  testBookingID,
			Content:    "On my way",
		})
		require.NoError(t, err)
		require.NotNil(t, msg.BookingID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))

	long := strings.Repeat("س", messagePreviewLen+10)
	got := preview(long)
	assert.Equal(t, messagePreviewLen+1, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}
