package usecase

import (
	"archive/zip"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vertiljivenson9/Project-prey/internal/assembler"
	"github.com/vertiljivenson9/Project-prey/internal/domain/entity"
)

var siteFiles = []entity.GeneratedFile{
	{Path: "index.html", Content: "<html>demo</html>"},
	{Path: "styles/main.css", Content: "body {}"},
}

type pipelineEnv struct {
	repo     *fakeProjectRepo
	history  *fakeHistoryRepo
	gen      *fakeGenerator
	archives *fakeArchiveStore
	asm      *assembler.Assembler
	pipeline *PipelineUseCase
}

func newPipelineEnv(t *testing.T, gen *fakeGenerator) *pipelineEnv {
	t.Helper()
	env := &pipelineEnv{
		repo:     newFakeProjectRepo(),
		history:  &fakeHistoryRepo{},
		gen:      gen,
		archives: newFakeArchiveStore(),
		asm:      assembler.New(t.TempDir()),
	}
	env.pipeline = NewPipelineUseCase(env.repo, env.history, env.gen, env.asm, env.archives, zap.NewNop())
	return env
}

func (e *pipelineEnv) queueProject(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, e.repo.Save(context.Background(), &entity.Project{
		ID:     id,
		UserID: "user-1",
		Status: entity.StatusQueued,
		Config: map[string]any{"name": "Demo"},
	}))
}

func TestRun_CompletesProject(t *testing.T) {
	env := newPipelineEnv(t, &fakeGenerator{files: siteFiles})
	env.queueProject(t, "proj-1")

	require.NoError(t, env.pipeline.Run(context.Background(), "proj-1"))

	project, err := env.repo.Get(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, project.Status)
	assert.Equal(t, "projects/proj-1/proj-1.zip", project.ArchiveKey)
	assert.NotNil(t, project.CompletedAt)
	assert.Empty(t, project.Error)

	// Source tree, preview tree and zip all materialized.
	assert.FileExists(t, filepath.Join(env.asm.ProjectPath("proj-1"), "index.html"))
	assert.FileExists(t, filepath.Join(env.asm.ProjectPath("proj-1"), "styles", "main.css"))
	previewPath, ok := env.asm.PreviewPath("proj-1")
	require.True(t, ok)
	assert.FileExists(t, filepath.Join(previewPath, "index.html"))

	zipPath, ok := env.archives.uploads["projects/proj-1/proj-1.zip"]
	require.True(t, ok)
	assert.FileExists(t, zipPath)
}

func TestRun_StatusSequenceIsMonotonic(t *testing.T) {
	env := newPipelineEnv(t, &fakeGenerator{files: siteFiles})
	env.queueProject(t, "proj-1")

	require.NoError(t, env.pipeline.Run(context.Background(), "proj-1"))

	assert.Equal(t, []entity.ProjectStatus{
		entity.StatusQueued,
		entity.StatusProcessing,
		entity.StatusCompleted,
	}, env.repo.statusLog["proj-1"])
}

func TestRun_GenerationFailure(t *testing.T) {
	env := newPipelineEnv(t, &fakeGenerator{err: errors.New("bad template")})
	env.queueProject(t, "proj-1")

	err := env.pipeline.Run(context.Background(), "proj-1")
	require.Error(t, err)

	project, getErr := env.repo.Get(context.Background(), "proj-1")
	require.NoError(t, getErr)
	assert.Equal(t, entity.StatusFailed, project.Status)
	assert.Equal(t, "bad template", project.Error)
	assert.Empty(t, project.ArchiveKey)
	assert.Empty(t, env.archives.uploads)
}

func TestRun_MissingRecordIsNoop(t *testing.T) {
	env := newPipelineEnv(t, &fakeGenerator{files: siteFiles})

	require.NoError(t, env.pipeline.Run(context.Background(), "evicted"))
	assert.Zero(t, env.gen.calls)
}

func TestRun_RedeliveryIsIdempotent(t *testing.T) {
	env := newPipelineEnv(t, &fakeGenerator{files: siteFiles})
	env.queueProject(t, "proj-1")

	require.NoError(t, env.pipeline.Run(context.Background(), "proj-1"))
	first, err := env.repo.Get(context.Background(), "proj-1")
	require.NoError(t, err)

	// Simulated redelivery: the second run must not touch the record or
	// rebuild artifacts.
	require.NoError(t, env.pipeline.Run(context.Background(), "proj-1"))
	second, err := env.repo.Get(context.Background(), "proj-1")
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.ArchiveKey, second.ArchiveKey)
	assert.Equal(t, first.CompletedAt, second.CompletedAt)
	assert.Equal(t, 1, env.gen.calls)
	assert.Len(t, env.archives.uploads, 1)
}

func TestRun_RedeliveryAfterFailureStaysFailed(t *testing.T) {
	env := newPipelineEnv(t, &fakeGenerator{err: errors.New("bad template")})
	env.queueProject(t, "proj-1")

	require.Error(t, env.pipeline.Run(context.Background(), "proj-1"))

	// The redelivery re-surfaces the recorded error without re-executing
	// the pipeline, so the queue still counts it as a failed attempt.
	err := env.pipeline.Run(context.Background(), "proj-1")
	require.Error(t, err)
	assert.Equal(t, "bad template", err.Error())

	project, getErr := env.repo.Get(context.Background(), "proj-1")
	require.NoError(t, getErr)
	assert.Equal(t, entity.StatusFailed, project.Status)
	assert.Equal(t, "bad template", project.Error)
	assert.Equal(t, 1, env.gen.calls)
	assert.Equal(t, []entity.ProjectStatus{
		entity.StatusQueued,
		entity.StatusProcessing,
		entity.StatusFailed,
	}, env.repo.statusLog["proj-1"])
}

func TestRun_InterruptedRunRetriesCleanly(t *testing.T) {
	// First delivery fails at the upload step AND the terminal write
	// fails, leaving the record in processing the way a crashed worker
	// does. The retry re-executes every step and lands on completed.
	env := newPipelineEnv(t, &fakeGenerator{files: siteFiles})
	env.queueProject(t, "proj-1")

	env.pipeline.Archives = &failingArchiveStore{inner: env.archives, failures: 1}
	env.repo.failSaveAfter(2) // creation + processing writes succeed, terminal write fails

	require.Error(t, env.pipeline.Run(context.Background(), "proj-1"))

	mid, err := env.repo.Get(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Equal(t, entity.StatusProcessing, mid.Status)

	env.repo.failSaveAfter(0)

	require.NoError(t, env.pipeline.Run(context.Background(), "proj-1"))
	final, err := env.repo.Get(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, final.Status)
	assert.Equal(t, 2, env.gen.calls)
	assert.Len(t, env.archives.uploads, 1)
}

func TestRun_ArchiveContainsGeneratedFiles(t *testing.T) {
	env := newPipelineEnv(t, &fakeGenerator{files: siteFiles})
	env.queueProject(t, "proj-1")

	require.NoError(t, env.pipeline.Run(context.Background(), "proj-1"))

	zipPath := env.archives.uploads["projects/proj-1/proj-1.zip"]
	reader, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer reader.Close()

	names := make(map[string]bool)
	for _, f := range reader.File {
		names[f.Name] = true
	}
	assert.True(t, names["index.html"])
	assert.True(t, names["styles/main.css"])
	assert.False(t, names["proj-1.zip"])
}

type failingArchiveStore struct {
	inner    *fakeArchiveStore
	failures int
}

func (f *failingArchiveStore) UploadArchive(ctx context.Context, key, zipPath string) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("upload interrupted")
	}
	return f.inner.UploadArchive(ctx, key, zipPath)
}

func TestRun_TerminalWriteFailureLeavesProcessing(t *testing.T) {
	env := newPipelineEnv(t, &fakeGenerator{err: errors.New("bad template")})
	env.queueProject(t, "proj-1")

	// Fail the terminal save: the error must still propagate to the queue
	// and the record stays stuck in processing until its TTL runs out.
	env.repo.failSaveAfter(2) // creation save + processing save succeed

	require.Error(t, env.pipeline.Run(context.Background(), "proj-1"))

	project, err := env.repo.Get(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, project.Status)
}
