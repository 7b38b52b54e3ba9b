package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/toosila/toosila-api/internal/models"
)

const messageColumns = `id, sender_id, receiver_id, booking_id, content, is_read, created_at`

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListConversation(ctx context.Context, userID, otherID string, page models.Page) ([]*models.Message, error)
	ListInbox(ctx context.Context, userID string) ([]*models.Conversation, error)
	MarkConversationRead(ctx context.Context, userID, otherID string) (int64, error)
}

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = time.Now()
	msg.IsRead = false

	query := `
		INSERT INTO messages (id, sender_id, receiver_id, booking_id, content, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.BookingID, msg.Content, msg.IsRead, msg.CreatedAt)
	return err
}

// ListConversation returns messages between two users, newest first
func (r *messageRepository) ListConversation(ctx context.Context, userID, otherID string, page models.Page) ([]*models.Message, error) {
	messages := []*models.Message{}
	query := `
		SELECT ` + messageColumns + ` FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	err := r.db.SelectContext(ctx, &messages, query, userID, otherID, page.Limit, page.Offset())
	return messages, err
}

// ListInbox returns the latest message per counterpart, most recent thread first
func (r *messageRepository) ListInbox(ctx context.Context, userID string) ([]*models.Conversation, error) {
	conversations := []*models.Conversation{}
	query := `
		WITH threads AS (
			SELECT
				CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS other_user_id,
				content,
				created_at,
				(receiver_id = $1 AND NOT is_read) AS unread
			FROM messages
			WHERE sender_id = $1 OR receiver_id = $1
		)
		SELECT other_user_id, last_message, last_at, unread_count FROM (
			SELECT DISTINCT ON (t.other_user_id)
				t.other_user_id,
				t.content AS last_message,
				t.created_at AS last_at,
				(SELECT COUNT(*) FROM threads u WHERE u.other_user_id = t.other_user_id AND u.unread) AS unread_count
			FROM threads t
			ORDER BY t.other_user_id, t.created_at DESC
		) inbox
		ORDER BY last_at DESC
	`
	err := r.db.SelectContext(ctx, &conversations, query, userID)
	return conversations, err
}

// MarkConversationRead marks everything otherID sent to userID as read
func (r *messageRepository) MarkConversationRead(ctx context.Context, userID, otherID string) (int64, error) {
	query := `UPDATE messages SET is_read = TRUE WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, userID, otherID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
