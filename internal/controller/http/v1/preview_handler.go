package v1

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/vertiljivenson9/Project-prey/internal/domain/entity"
	"github.com/vertiljivenson9/Project-prey/internal/domain/usecase"
)

type PreviewLocator interface {
	PreviewPath(projectID string) (string, bool)
}

type PreviewHandler struct {
	UseCase  ProjectUseCase
	Previews PreviewLocator
}

func NewPreviewHandler(u ProjectUseCase, previews PreviewLocator) *PreviewHandler {
	return &PreviewHandler{UseCase: u, Previews: previews}
}

// GetPreview serves the preview tree's index.html for a completed project.
// The preview copy may expire independently of the record.
func (h *PreviewHandler) GetPreview(c *gin.Context) {
	projectID := c.Param("project_id")
	userID := c.GetString("user_id")

	project, err := h.UseCase.GetStatus(c.Request.Context(), projectID, userID)
	if err != nil {
		if errors.Is(err, usecase.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not available for preview"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preview"})
		return
	}

	if project.Status != entity.StatusCompleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not available for preview"})
		return
	}

	previewPath, ok := h.Previews.PreviewPath(projectID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "preview expired or unavailable"})
		return
	}

	c.File(filepath.Join(previewPath, "index.html"))
}
