package psql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vertiljivenson9/Project-prey/internal/domain/entity"
)

type GormHistoryRepo struct {
	DB *gorm.DB
}

func NewGormHistoryRepo(db *gorm.DB) *GormHistoryRepo {
	return &GormHistoryRepo{DB: db}
}

func (r *GormHistoryRepo) CreateProject(ctx context.Context, row *entity.ProjectHistory) error {
	return r.DB.WithContext(ctx).Create(row).Error
}

func (r *GormHistoryRepo) UpdateProjectStatus(ctx context.Context, projectID string, status entity.ProjectStatus, errMsg string) error {
	row := &entity.ProjectHistory{}
	err := r.DB.WithContext(ctx).First(row, "project_id = ?", projectID).Error
	if err != nil {
		return fmt.Errorf("project history not found: %w", err)
	}

	row.Status = status
	row.Error = errMsg
	row.UpdatedAt = time.Now()

	return r.DB.WithContext(ctx).Save(row).Error
}
