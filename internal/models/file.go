package models

import (
	"time"
)

// File kinds, derived from the sniffed content type at upload time.
const (
	KindFile  = "file"
	KindImage = "image"
)

// File is a stored upload. Files start life as temporary records created by
// the upload endpoints and are promoted to a permanent object association
// when the owning record is saved. A temporary file is never considered
// attached to anything, even when ObjectID/ObjectClass carry a hint.
type File struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"` // bytes
	Key         string    `json:"key"`  // asset store key
	Kind        string    `json:"kind" gorm:"default:file"`
	IsTemporary bool      `json:"isTemporary" gorm:"index;default:false"`
	OwnerID     string    `json:"ownerId" gorm:"index"` // identity of the uploader
	ObjectID    int64     `json:"objectId" gorm:"index:idx_files_object"`
	ObjectClass string    `json:"objectClass" gorm:"index:idx_files_object"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Attached reports whether the file is committed to the given object.
func (f *File) Attached(objectID int64, objectClass string) bool {
	return !f.IsTemporary && f.ObjectID == objectID && f.ObjectClass == objectClass
}
