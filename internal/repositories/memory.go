package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rohits-web03/dropkeep/internal/models"
)

// MemoryFileStore is a mutex-guarded in-memory FileStore. It backs tests and
// lets the server run without Postgres in throwaway setups.
type MemoryFileStore struct {
	mu     sync.Mutex
	nextID uint
	files  map[uint]models.File
}

func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{files: make(map[uint]models.File)}
}

func (s *MemoryFileStore) Create(ctx context.Context, f *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	f.ID = s.nextID
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	f.UpdatedAt = f.CreatedAt
	s.files[f.ID] = *f
	return nil
}

func (s *MemoryFileStore) ByID(ctx context.Context, id uint) (*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	return &f, nil
}

func (s *MemoryFileStore) Save(ctx context.Context, f *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[f.ID]; !ok {
		return ErrFileNotFound
	}
	f.UpdatedAt = time.Now()
	s.files[f.ID] = *f
	return nil
}

func (s *MemoryFileStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, id)
	return nil
}

func (s *MemoryFileStore) Temporaries(ctx context.Context, cutoff time.Time, limit int) ([]models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.File
	for _, f := range s.files {
		if f.IsTemporary && !f.CreatedAt.After(cutoff) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryFileStore) ByObject(ctx context.Context, objectID int64, objectClass string) ([]models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.File
	for _, f := range s.files {
		if !f.IsTemporary && f.ObjectID == objectID && f.ObjectClass == objectClass {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
