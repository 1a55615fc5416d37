package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/vertiljivenson9/Project-prey/internal/domain/entity"
)

type Generator interface {
	Generate(ctx context.Context, config map[string]any) ([]entity.GeneratedFile, error)
}

type Assembler interface {
	Assemble(projectID string, files []entity.GeneratedFile) (string, error)
	BuildPreview(projectID string) (string, error)
	ZipProject(projectID string) (string, error)
}

type ArchiveStore interface {
	UploadArchive(ctx context.Context, key, zipPath string) error
}

// PipelineUseCase drives one project through generation, assembly, preview
// and packaging. It is the only writer of a project's status after creation
// and must stay safe to re-run: the queue delivers at least once.
type PipelineUseCase struct {
	Projects  ProjectRepo
	History   HistoryRepo
	Generator Generator
	Assembler Assembler
	Archives  ArchiveStore
	Log       *zap.Logger
}

func NewPipelineUseCase(projects ProjectRepo, history HistoryRepo, gen Generator, asm Assembler, archives ArchiveStore, log *zap.Logger) *PipelineUseCase {
	return &PipelineUseCase{
		Projects:  projects,
		History:   history,
		Generator: gen,
		Assembler: asm,
		Archives:  archives,
		Log:       log,
	}
}

// Run processes a single project. A missing record is not an error: the
// record may have expired before the work item was delivered. A record
// already in a terminal state is left untouched so redeliveries cannot
// roll a finished project back to processing. That makes retries after a
// recorded failure inert: the pipeline does not re-execute, and the stored
// error is returned as-is so the queue can finish its retry accounting.
// Only a run interrupted before a terminal state was written (leaving the
// record in processing) does real work again on redelivery.
func (u *PipelineUseCase) Run(ctx context.Context, projectID string) error {
	project, err := u.Projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil {
		u.Log.Warn("project record missing, skipping", zap.String("project_id", projectID))
		return nil
	}
	if project.Status.Terminal() {
		u.Log.Info("project already finished, skipping redelivery",
			zap.String("project_id", projectID),
			zap.String("status", string(project.Status)))
		if project.Status == entity.StatusFailed {
			// Re-surface the recorded failure without re-executing so
			// the queue's retry accounting still applies, while the
			// record itself never leaves its terminal state.
			return errors.New(project.Error)
		}
		return nil
	}

	project.Status = entity.StatusProcessing
	if err := u.Projects.Save(ctx, project); err != nil {
		return err
	}

	archiveKey, err := u.build(ctx, project)
	if err != nil {
		project.Status = entity.StatusFailed
		project.Error = err.Error()
		if saveErr := u.Projects.Save(ctx, project); saveErr != nil {
			// The record is stuck in processing until its TTL runs out.
			u.Log.Error("failed to persist terminal state",
				zap.String("project_id", projectID), zap.Error(saveErr))
		}
		u.recordHistory(ctx, project)
		u.Log.Error("project failed", zap.String("project_id", projectID), zap.Error(err))
		return err
	}

	now := time.Now()
	project.Status = entity.StatusCompleted
	project.ArchiveKey = archiveKey
	project.CompletedAt = &now
	if err := u.Projects.Save(ctx, project); err != nil {
		return err
	}
	u.recordHistory(ctx, project)

	u.Log.Info("project completed",
		zap.String("project_id", projectID),
		zap.String("archive_key", archiveKey))

	return nil
}

func (u *PipelineUseCase) build(ctx context.Context, project *entity.Project) (string, error) {
	files, err := u.Generator.Generate(ctx, project.Config)
	if err != nil {
		return "", err
	}

	if _, err := u.Assembler.Assemble(project.ID, files); err != nil {
		return "", fmt.Errorf("assemble project: %w", err)
	}
	if _, err := u.Assembler.BuildPreview(project.ID); err != nil {
		return "", fmt.Errorf("build preview: %w", err)
	}
	zipPath, err := u.Assembler.ZipProject(project.ID)
	if err != nil {
		return "", fmt.Errorf("zip project: %w", err)
	}

	key := path.Join("projects", project.ID, project.ID+".zip")
	if err := u.Archives.UploadArchive(ctx, key, zipPath); err != nil {
		return "", fmt.Errorf("upload archive: %w", err)
	}

	return key, nil
}

func (u *PipelineUseCase) recordHistory(ctx context.Context, project *entity.Project) {
	if err := u.History.UpdateProjectStatus(ctx, project.ID, project.Status, project.Error); err != nil {
		u.Log.Warn("history update failed", zap.String("project_id", project.ID), zap.Error(err))
	}
}
