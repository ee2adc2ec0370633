package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fabworks/workshop-api/internal/auth"
	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/mail"
	"github.com/fabworks/workshop-api/internal/mapper"
	"github.com/fabworks/workshop-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotificationNotFound is returned when a notification is not found
var ErrNotificationNotFound = errors.New("notification not found")

// ErrNotificationNotOwned is returned when trying to access a notification owned by another user
var ErrNotificationNotOwned = errors.New("notification does not belong to current user")

// ErrUserContextRequired is returned when user context is not available
var ErrUserContextRequired = errors.New("user context required")

// NotificationService handles business logic for notifications. In-app
// notifications are persisted; email delivery is best-effort and never blocks
// or fails the calling operation.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	mailer           *mail.Mailer
	logger           *zap.Logger
}

// NewNotificationService creates a new NotificationService instance
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	mailer *mail.Mailer,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		mailer:           mailer,
		logger:           logger,
	}
}

// CreateForUser creates a notification for a specific user and dispatches an
// email copy in the background when mail is enabled
func (s *NotificationService) CreateForUser(
	ctx context.Context,
	userID uuid.UUID,
	notificationType domain.NotificationType,
	title string,
	message string,
	entityType string,
	entityID *uuid.UUID,
) (*domain.NotificationDTO, error) {
	notification := &domain.Notification{
		UserID:     userID,
		Type:       string(notificationType),
		Title:      title,
		Message:    message,
		EntityType: entityType,
		EntityID:   entityID,
		Read:       false,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.Info("notification created",
		zap.String("notificationID", notification.ID.String()),
		zap.String("userID", userID.String()),
		zap.String("type", string(notificationType)),
	)

	s.dispatchEmail(userID, title, message)

	dto := mapper.ToNotificationDTO(notification)
	return &dto, nil
}

// CreateBatch creates notifications for multiple users. Per-user failures are
// logged and skipped.
func (s *NotificationService) CreateBatch(
	ctx context.Context,
	userIDs []uuid.UUID,
	notificationType domain.NotificationType,
	title string,
	message string,
	entityType string,
	entityID *uuid.UUID,
) ([]domain.NotificationDTO, error) {
	if len(userIDs) == 0 {
		return []domain.NotificationDTO{}, nil
	}

	results := make([]domain.NotificationDTO, 0, len(userIDs))
	var failedCount int

	for _, userID := range userIDs {
		notification := &domain.Notification{
			UserID:     userID,
			Type:       string(notificationType),
			Title:      title,
			Message:    message,
			EntityType: entityType,
			EntityID:   entityID,
			Read:       false,
		}

		if err := s.notificationRepo.Create(ctx, notification); err != nil {
			s.logger.Warn("failed to create notification for user",
				zap.String("userID", userID.String()),
				zap.Error(err),
			)
			failedCount++
			continue
		}

		s.dispatchEmail(userID, title, message)
		results = append(results, mapper.ToNotificationDTO(notification))
	}

	if failedCount > 0 {
		s.logger.Warn("batch notification creation completed with failures",
			zap.Int("total", len(userIDs)),
			zap.Int("failed", failedCount),
		)
	}

	return results, nil
}

// ListForCurrentUser returns notifications for the authenticated user
func (s *NotificationService) ListForCurrentUser(ctx context.Context, unreadOnly bool, limit int) ([]domain.NotificationDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	notifications, err := s.notificationRepo.ListByUser(ctx, userCtx.UserID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	dtos := make([]domain.NotificationDTO, 0, len(notifications))
	for i := range notifications {
		dtos = append(dtos, mapper.ToNotificationDTO(&notifications[i]))
	}
	return dtos, nil
}

// UnreadCount returns the number of unread notifications for the authenticated user
func (s *NotificationService) UnreadCount(ctx context.Context) (int64, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return 0, ErrUserContextRequired
	}
	return s.notificationRepo.CountUnread(ctx, userCtx.UserID)
}

// MarkRead marks one notification as read. Only the owning user may mark it.
func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUserContextRequired
	}

	notification, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to get notification: %w", err)
	}

	if notification.UserID != userCtx.UserID {
		return ErrNotificationNotOwned
	}

	return s.notificationRepo.MarkRead(ctx, id, time.Now().UTC())
}

// MarkAllRead marks all of the authenticated user's notifications as read
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUserContextRequired
	}
	return s.notificationRepo.MarkAllRead(ctx, userCtx.UserID, time.Now().UTC())
}

// dispatchEmail sends an email copy of a notification without blocking the
// caller. Lookup and send failures are logged only.
func (s *NotificationService) dispatchEmail(userID uuid.UUID, subject, body string) {
	if s.mailer == nil || !s.mailer.Enabled() {
		return
	}

	go func() {
		user, err := s.userRepo.GetByID(context.Background(), userID)
		if err != nil {
			s.logger.Warn("failed to resolve user for notification email",
				zap.String("userID", userID.String()),
				zap.Error(err),
			)
			return
		}
		if user.Email == "" || !user.IsActive {
			return
		}
		if err := s.mailer.Send(user.Email, subject, body); err != nil {
			s.logger.Warn("failed to send notification email",
				zap.String("userID", userID.String()),
				zap.Error(err),
			)
		}
	}()
}
