package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/toosila/toosila-api/internal/cache"
	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/repository"
)

type NotificationService interface {
	Notify(ctx context.Context, userID, notificationType, title, message string, data interface{}) error
	List(ctx context.Context, userID string, unreadOnly bool, page models.Page) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo    repository.NotificationRepository
	counter cache.UnreadCounter
	logger  *slog.Logger
}

func NewNotificationService(repo repository.NotificationRepository, counter cache.UnreadCounter, logger *slog.Logger) NotificationService {
	return &notificationService{
		repo:    repo,
		counter: counter,
		logger:  logger,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID, notificationType, title, message string, data interface{}) error {
	n := &models.Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		n.Data = raw
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	s.invalidate(ctx, userID)
	return nil
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, page models.Page) ([]*models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, page)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("notification")
	}

	s.invalidate(ctx, userID)
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, userID)
	return n, nil
}

// UnreadCount serves from the cache and rebuilds from the database on a miss
func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	cacheable := false
	version := ""
	if s.counter != nil {
		count, found, err := s.counter.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("unread counter lookup failed", "user_id", userID, "error", err)
		} else if found {
			return count, nil
		} else if version, err = s.counter.Version(ctx, userID); err != nil {
			s.logger.Warn("unread counter version lookup failed", "user_id", userID, "error", err)
		} else {
			cacheable = true
		}
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	if cacheable {
		stored, err := s.counter.StoreIfVersion(ctx, userID, count, version)
		if err != nil {
			s.logger.Warn("failed to cache unread counter", "user_id", userID, "error", err)
		} else if !stored {
			s.logger.Debug("unread counter changed during rebuild, not cached", "user_id", userID)
		}
	}
	return count, nil
}

func (s *notificationService) invalidate(ctx context.Context, userID string) {
	if s.counter == nil {
		return
	}
	if err := s.counter.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate unread counter", "user_id", userID, "error", err)
	}
}
