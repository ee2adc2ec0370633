package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fabworks/workshop-api/internal/auth"
	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/fabworks/workshop-api/internal/mapper"
	"github.com/fabworks/workshop-api/internal/repository"
	"github.com/fabworks/workshop-api/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrAttachmentNotFound is returned when an attachment is not found
var ErrAttachmentNotFound = errors.New("attachment not found")

// AttachmentService manages project document uploads through the configured
// storage backend
type AttachmentService struct {
	attachmentRepo *repository.AttachmentRepository
	projectRepo    *repository.ProjectRepository
	store          storage.Storage
	maxUploadSize  int64
	logger         *zap.Logger
}

// NewAttachmentService creates a new AttachmentService. maxUploadSizeMB
// limits individual uploads.
func NewAttachmentService(
	attachmentRepo *repository.AttachmentRepository,
	projectRepo *repository.ProjectRepository,
	store storage.Storage,
	maxUploadSizeMB int64,
	logger *zap.Logger,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		projectRepo:    projectRepo,
		store:          store,
		maxUploadSize:  maxUploadSizeMB * 1024 * 1024,
		logger:         logger,
	}
}

// Upload stores a file and records it against the project
func (s *AttachmentService) Upload(ctx context.Context, projectID uuid.UUID, filename, contentType string, data io.Reader) (*domain.AttachmentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrValidation)
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !userCtx.CanManageProject(project) && !project.HasFabricator(userCtx.UserID) {
		return nil, ErrPermissionDenied
	}

	limited := io.LimitReader(data, s.maxUploadSize+1)
	storagePath, size, err := s.store.Upload(ctx, projectID, filename, contentType, limited)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	if size > s.maxUploadSize {
		if delErr := s.store.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to remove oversized upload", zap.Error(delErr))
		}
		return nil, fmt.Errorf("%w: file exceeds the %d byte upload limit", ErrValidation, s.maxUploadSize)
	}

	attachment := &domain.Attachment{
		ProjectID:   projectID,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		StoragePath: storagePath,
		UploadedBy:  userCtx.UserID,
	}

	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		if delErr := s.store.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to clean up stored file after db error", zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to record attachment: %w", err)
	}

	s.logger.Info("attachment uploaded",
		zap.String("attachmentID", attachment.ID.String()),
		zap.String("projectID", projectID.String()),
		zap.Int64("size", size),
	)

	dto := mapper.ToAttachmentDTO(attachment)
	return &dto, nil
}

// Download streams an attachment's content. The returned metadata carries the
// filename and content type for the response headers.
func (s *AttachmentService) Download(ctx context.Context, id uuid.UUID) (*domain.Attachment, io.ReadCloser, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, nil, ErrUnauthorized
	}

	attachment, err := s.attachmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	project, err := s.projectRepo.GetByID(ctx, attachment.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !userCtx.CanManageProject(project) && !project.HasFabricator(userCtx.UserID) {
		return nil, nil, ErrPermissionDenied
	}

	reader, err := s.store.Download(ctx, attachment.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return attachment, reader, nil
}

// ListByProject returns a project's attachments
func (s *AttachmentService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.AttachmentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !userCtx.CanManageProject(project) && !project.HasFabricator(userCtx.UserID) {
		return nil, ErrPermissionDenied
	}

	attachments, err := s.attachmentRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	dtos := make([]domain.AttachmentDTO, 0, len(attachments))
	for i := range attachments {
		dtos = append(dtos, mapper.ToAttachmentDTO(&attachments[i]))
	}
	return dtos, nil
}

// Delete removes an attachment record and its stored file. Uploader, project
// managers only.
func (s *AttachmentService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}

	attachment, err := s.attachmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttachmentNotFound
		}
		return fmt.Errorf("failed to get attachment: %w", err)
	}

	if attachment.UploadedBy != userCtx.UserID {
		project, err := s.projectRepo.GetByID(ctx, attachment.ProjectID)
		if err != nil {
			return fmt.Errorf("failed to get project: %w", err)
		}
		if !userCtx.CanManageProject(project) {
			return ErrPermissionDenied
		}
	}

	if err := s.attachmentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete attachment record: %w", err)
	}
	if err := s.store.Delete(ctx, attachment.StoragePath); err != nil {
		// Record is gone; orphaned file is logged for manual cleanup
		s.logger.Warn("failed to delete stored file",
			zap.String("storagePath", attachment.StoragePath),
			zap.Error(err),
		)
	}
	return nil
}
