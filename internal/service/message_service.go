package service

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/internal/events"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/repository"
)

const messagePreviewLen = 80

type MessageService interface {
	SendMessage(ctx context.Context, senderID string, req *models.SendMessageRequest) (*models.Message, error)
	ListConversation(ctx context.Context, userID, otherID string, page models.Page) ([]*models.Message, error)
	ListInbox(ctx context.Context, userID string) ([]*models.Conversation, error)
	MarkConversationRead(ctx context.Context, userID, otherID string) (int64, error)
}

// MessageEvent is published on message.sent
type MessageEvent struct {
	MessageID  string  `json:"message_id"`
	SenderID   string  `json:"sender_id"`
	ReceiverID string  `json:"receiver_id"`
	BookingID  *string `json:"booking_id,omitempty"`
}

type messageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	bookingRepo repository.BookingRepository
	offerRepo   repository.OfferRepository
	notifier    NotificationService
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	bookingRepo repository.BookingRepository,
	offerRepo repository.OfferRepository,
	notifier NotificationService,
	publisher events.Publisher,
	logger *slog.Logger,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		bookingRepo: bookingRepo,
		offerRepo:   offerRepo,
		notifier:    notifier,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *messageService) SendMessage(ctx context.Context, senderID string, req *models.SendMessageRequest) (*models.Message, error) {
	if req.ReceiverID == senderID {
		return nil, apperrors.Validation("You cannot message yourself")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.Validation("message content is required")
	}

	receiver, err := s.userRepo.GetByID(ctx, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, apperrors.NotFound("user")
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Content:    content,
	}

	if req.BookingID != "" {
		booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
		if err != nil {
			return nil, err
		}
		if booking == nil {
			return nil, apperrors.NotFound("booking")
		}
		offer, err := s.offerRepo.GetByID(ctx, booking.OfferID)
		if err != nil {
			return nil, err
		}
		if offer == nil {
			return nil, apperrors.NotFound("offer")
		}
		if !bookingParties(booking, offer, senderID, req.ReceiverID) {
			return nil, apperrors.Forbidden("only the booking's passenger and driver can message about it")
		}
		msg.BookingID = &booking.ID
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		data := map[string]string{"message_id": msg.ID, "sender_id": senderID}
		if err := s.notifier.Notify(ctx, receiver.ID, models.NotificationNewMessage, "New message", preview(content), data); err != nil {
			s.logger.Warn("failed to create message notification", "message_id", msg.ID, "error", err)
		}
	}

	if s.publisher != nil {
		event := MessageEvent{MessageID: msg.ID, SenderID: senderID, ReceiverID: receiver.ID, BookingID: msg.BookingID}
		if err := s.publisher.Publish(ctx, events.MessageSent, event); err != nil {
			s.logger.Warn("failed to publish message event", "message_id", msg.ID, "error", err)
		}
	}

	return msg, nil
}

func (s *messageService) ListConversation(ctx context.Context, userID, otherID string, page models.Page) ([]*models.Message, error) {
	return s.messageRepo.ListConversation(ctx, userID, otherID, page)
}

func (s *messageService) ListInbox(ctx context.Context, userID string) ([]*models.Conversation, error) {
	return s.messageRepo.ListInbox(ctx, userID)
}

func (s *messageService) MarkConversationRead(ctx context.Context, userID, otherID string) (int64, error) {
	return s.messageRepo.MarkConversationRead(ctx, userID, otherID)
}

// bookingParties reports whether a and b are the booking's passenger and the
// offer's driver, in either order
func bookingParties(booking *models.Booking, offer *models.Offer, a, b string) bool {
	return (a == booking.PassengerID && b == offer.DriverID) ||
		(a == offer.DriverID && b == booking.PassengerID)
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= messagePreviewLen {
		return content
	}
	return string(runes[:messagePreviewLen]) + "…"
}
