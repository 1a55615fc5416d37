package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/vertiljivenson9/Project-prey/internal/domain/entity"
)

// fakeProjectRepo mimics the Redis record store: full-value overwrites and
// a TTL reset counter per key.
type fakeProjectRepo struct {
	mu        sync.Mutex
	records   map[string]entity.Project
	ttlResets map[string]int
	statusLog map[string][]entity.ProjectStatus
	saveCount int
	failAfter int // 0 means saves never fail
}

// failSaveAfter lets the first n saves succeed and fails the rest.
func (f *fakeProjectRepo) failSaveAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAfter = n
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		records:   make(map[string]entity.Project),
		ttlResets: make(map[string]int),
		statusLog: make(map[string][]entity.ProjectStatus),
	}
}

func (f *fakeProjectRepo) Save(_ context.Context, project *entity.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCount++
	if f.failAfter > 0 && f.saveCount > f.failAfter {
		return errors.New("store unavailable")
	}
	f.records[project.ID] = *project
	f.ttlResets[project.ID]++
	f.statusLog[project.ID] = append(f.statusLog[project.ID], project.Status)
	return nil
}

func (f *fakeProjectRepo) Get(_ context.Context, projectID string) (*entity.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[projectID]
	if !ok {
		return nil, nil
	}
	clone := record
	return &clone, nil
}

type fakeHistoryRepo struct {
	created []entity.ProjectHistory
	updates []entity.ProjectStatus
}

func (f *fakeHistoryRepo) CreateProject(_ context.Context, row *entity.ProjectHistory) error {
	f.created = append(f.created, *row)
	return nil
}

func (f *fakeHistoryRepo) UpdateProjectStatus(_ context.Context, _ string, status entity.ProjectStatus, _ string) error {
	f.updates = append(f.updates, status)
	return nil
}

type fakePublisher struct {
	published []json.RawMessage
	failures  int
}

func (f *fakePublisher) Publish(_ context.Context, body json.RawMessage) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, body)
	return nil
}

type fakeArchiveStore struct {
	uploads map[string]string
}

func newFakeArchiveStore() *fakeArchiveStore {
	return &fakeArchiveStore{uploads: make(map[string]string)}
}

func (f *fakeArchiveStore) UploadArchive(_ context.Context, key, zipPath string) error {
	f.uploads[key] = zipPath
	return nil
}

type fakeGenerator struct {
	files []entity.GeneratedFile
	err   error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context, _ map[string]any) ([]entity.GeneratedFile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.files, nil
}
