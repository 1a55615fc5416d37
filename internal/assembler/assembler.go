package assembler

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vertiljivenson9/Project-prey/internal/domain/entity"
)

// Assembler materializes project artifacts on local disk: the source tree
// under ProjectsRoot/<id>, a browsable copy under PreviewsRoot/<id> and a
// zip next to the source tree. All operations overwrite, so a retried run
// produces the same artifacts without conflicts.
type Assembler struct {
	ProjectsRoot string
	PreviewsRoot string
}

func New(storageRoot string) *Assembler {
	return &Assembler{
		ProjectsRoot: filepath.Join(storageRoot, "projects"),
		PreviewsRoot: filepath.Join(storageRoot, "previews"),
	}
}

func (a *Assembler) ProjectPath(projectID string) string {
	return filepath.Join(a.ProjectsRoot, projectID)
}

// PreviewPath returns the preview tree location and whether it exists.
// External cleanup may remove previews independently of the record.
func (a *Assembler) PreviewPath(projectID string) (string, bool) {
	previewPath := filepath.Join(a.PreviewsRoot, projectID)
	if _, err := os.Stat(previewPath); err != nil {
		return "", false
	}
	return previewPath, true
}

// Assemble writes the generated files under the project root, creating
// parent directories as needed.
func (a *Assembler) Assemble(projectID string, files []entity.GeneratedFile) (string, error) {
	projectPath := a.ProjectPath(projectID)
	if err := os.MkdirAll(projectPath, 0o755); err != nil {
		return "", err
	}

	for _, file := range files {
		rel := filepath.Clean(filepath.FromSlash(file.Path))
		if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
			return "", fmt.Errorf("file path escapes project root: %s", file.Path)
		}

		fullPath := filepath.Join(projectPath, rel)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(fullPath, []byte(file.Content), 0o644); err != nil {
			return "", err
		}
	}

	return projectPath, nil
}

// BuildPreview duplicates the source tree into the preview namespace,
// replacing any previous copy.
func (a *Assembler) BuildPreview(projectID string) (string, error) {
	sourcePath := a.ProjectPath(projectID)
	previewPath := filepath.Join(a.PreviewsRoot, projectID)

	if err := os.RemoveAll(previewPath); err != nil {
		return "", err
	}
	if err := os.MkdirAll(previewPath, 0o755); err != nil {
		return "", err
	}
	if err := os.CopyFS(previewPath, os.DirFS(sourcePath)); err != nil {
		return "", err
	}

	return previewPath, nil
}

// ZipProject compresses the source tree into <id>.zip inside the project
// directory and returns the zip path. The zip itself is excluded from the
// walk so a re-run does not nest the previous archive.
func (a *Assembler) ZipProject(projectID string) (string, error) {
	projectPath := a.ProjectPath(projectID)
	zipPath := filepath.Join(projectPath, projectID+".zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		return "", err
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	err = filepath.WalkDir(projectPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || p == zipPath {
			return nil
		}

		rel, err := filepath.Rel(projectPath, p)
		if err != nil {
			return err
		}

		w, err := zipWriter.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		zipWriter.Close()
		return "", err
	}

	if err := zipWriter.Close(); err != nil {
		return "", err
	}

	return zipPath, nil
}
