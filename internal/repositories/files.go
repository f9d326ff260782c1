package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/rohits-web03/dropkeep/internal/models"
	"gorm.io/gorm"
)

// ErrFileNotFound is returned by lookups for ids that do not exist (or no
// longer exist, e.g. an expired chunk transfer).
var ErrFileNotFound = errors.New("file not found")

// FileStore is the persistence boundary for file records. The gorm
// implementation below is the production one; tests substitute an in-memory
// fake.
type FileStore interface {
	Create(ctx context.Context, f *models.File) error
	ByID(ctx context.Context, id uint) (*models.File, error)
	Save(ctx context.Context, f *models.File) error
	Delete(ctx context.Context, id uint) error
	// Temporaries returns up to limit temporary files created at or before cutoff.
	Temporaries(ctx context.Context, cutoff time.Time, limit int) ([]models.File, error)
	// ByObject returns non-temporary files attached to the given object.
	ByObject(ctx context.Context, objectID int64, objectClass string) ([]models.File, error)
}

type gormFileStore struct {
	db *gorm.DB
}

func NewFileStore(db *gorm.DB) FileStore {
	return &gormFileStore{db: db}
}

func (s *gormFileStore) Create(ctx context.Context, f *models.File) error {
	return s.db.WithContext(ctx).Create(f).Error
}

func (s *gormFileStore) ByID(ctx context.Context, id uint) (*models.File, error) {
	var f models.File
	err := s.db.WithContext(ctx).First(&f, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *gormFileStore) Save(ctx context.Context, f *models.File) error {
	return s.db.WithContext(ctx).Save(f).Error
}

func (s *gormFileStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.File{}, id).Error
}

func (s *gormFileStore) Temporaries(ctx context.Context, cutoff time.Time, limit int) ([]models.File, error) {
	var files []models.File
	q := s.db.WithContext(ctx).
		Where("is_temporary = ? AND created_at <= ?", true, cutoff).
		Order("created_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (s *gormFileStore) ByObject(ctx context.Context, objectID int64, objectClass string) ([]models.File, error) {
	var files []models.File
	err := s.db.WithContext(ctx).
		Where("object_id = ? AND object_class = ? AND is_temporary = ?", objectID, objectClass, false).
		Order("id asc").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}
