package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vertiljivenson9/Project-prey/internal/domain/entity"
	"github.com/vertiljivenson9/Project-prey/pkg/utils"
)

type ProjectRepo interface {
	Save(ctx context.Context, project *entity.Project) error
	Get(ctx context.Context, projectID string) (*entity.Project, error)
}

type HistoryRepo interface {
	CreateProject(ctx context.Context, row *entity.ProjectHistory) error
	UpdateProjectStatus(ctx context.Context, projectID string, status entity.ProjectStatus, errMsg string) error
}

type Publisher interface {
	Publish(ctx context.Context, body json.RawMessage) error
}

type ProjectUseCase struct {
	Projects  ProjectRepo
	History   HistoryRepo
	Publisher Publisher
	Log       *zap.Logger

	publishAttempts  int
	publishBaseDelay time.Duration
	publishMaxDelay  time.Duration
}

func NewProjectUseCase(projects ProjectRepo, history HistoryRepo, pub Publisher, log *zap.Logger) *ProjectUseCase {
	return &ProjectUseCase{
		Projects:  projects,
		History:   history,
		Publisher: pub,
		Log:       log,

		publishAttempts:  5,
		publishBaseDelay: 500 * time.Millisecond,
		publishMaxDelay:  10 * time.Second,
	}
}

// Create registers a new project with status=queued and enqueues a work item
// for the pipeline worker. It returns without waiting for processing.
func (u *ProjectUseCase) Create(ctx context.Context, userID string, config map[string]any) (*entity.Project, error) {
	if len(config) == 0 {
		return nil, ErrInvalidConfig
	}

	project := &entity.Project{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    entity.StatusQueued,
		Config:    config,
		CreatedAt: time.Now(),
	}

	if err := u.Projects.Save(ctx, project); err != nil {
		return nil, err
	}

	if err := u.History.CreateProject(ctx, &entity.ProjectHistory{
		ProjectID: project.ID,
		UserID:    userID,
		Status:    entity.StatusQueued,
	}); err != nil {
		u.Log.Warn("history write failed", zap.String("project_id", project.ID), zap.Error(err))
	}

	item, err := utils.ToRawMessage(entity.WorkItem{ProjectID: project.ID})
	if err != nil {
		return nil, err
	}

	// If publishing fails after the record is stored, the project stays
	// queued until its TTL expires. There is no reconciliation pass.
	if err := u.publishWithRetry(ctx, item); err != nil {
		return nil, err
	}

	u.Log.Info("project queued", zap.String("project_id", project.ID), zap.String("user_id", userID))

	return project, nil
}

// GetStatus loads the project record. A missing record and a record owned by
// someone else are indistinguishable to the caller.
func (u *ProjectUseCase) GetStatus(ctx context.Context, projectID, userID string) (*entity.Project, error) {
	project, err := u.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil || project.UserID != userID {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// GetForDownload is GetStatus restricted to completed projects.
func (u *ProjectUseCase) GetForDownload(ctx context.Context, projectID, userID string) (*entity.Project, error) {
	project, err := u.GetStatus(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if project.Status != entity.StatusCompleted {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

func (u *ProjectUseCase) publishWithRetry(ctx context.Context, msg json.RawMessage) error {
	var lastErr error

	for attempt := 1; attempt <= u.publishAttempts; attempt++ {
		if err := u.Publisher.Publish(ctx, msg); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == u.publishAttempts {
			break
		}

		backoff := u.publishBaseDelay << (attempt - 1)
		if backoff > u.publishMaxDelay {
			backoff = u.publishMaxDelay
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return errors.New("publish canceled by context")
		}
	}

	return lastErr
}
