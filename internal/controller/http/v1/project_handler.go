package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vertiljivenson9/Project-prey/internal/domain/entity"
	"github.com/vertiljivenson9/Project-prey/internal/domain/usecase"
)

type ProjectUseCase interface {
	Create(ctx context.Context, userID string, config map[string]any) (*entity.Project, error)
	GetStatus(ctx context.Context, projectID, userID string) (*entity.Project, error)
	GetForDownload(ctx context.Context, projectID, userID string) (*entity.Project, error)
}

type ArchiveReader interface {
	GetArchiveReader(ctx context.Context, key string) (io.ReadCloser, int64, error)
}

type ProjectHandler struct {
	UseCase  ProjectUseCase
	Archives ArchiveReader
}

func NewProjectHandler(u ProjectUseCase, archives ArchiveReader) *ProjectHandler {
	return &ProjectHandler{UseCase: u, Archives: archives}
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	var config map[string]any
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project configuration"})
		return
	}

	project, err := h.UseCase.Create(c.Request.Context(), userID.(string), config)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidConfig) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project configuration"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project creation failed"})
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) GetStatus(c *gin.Context) {
	projectID := c.Param("project_id")
	userID := c.GetString("user_id")

	project, err := h.UseCase.GetStatus(c.Request.Context(), projectID, userID)
	if err != nil {
		if errors.Is(err, usecase.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get project status"})
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Download(c *gin.Context) {
	projectID := c.Param("project_id")
	userID := c.GetString("user_id")

	project, err := h.UseCase.GetForDownload(c.Request.Context(), projectID, userID)
	if err != nil {
		if errors.Is(err, usecase.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not available for download"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "download failed"})
		return
	}

	if project.ArchiveKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not available for download"})
		return
	}

	reader, size, err := h.Archives.GetArchiveReader(c.Request.Context(), project.ArchiveKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not available for download"})
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, size, "application/zip", reader, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s.zip"`, project.ID),
	})
}
