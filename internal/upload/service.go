// Package upload implements the server side of the resumable upload widget:
// the single-shot and chunked upload paths, promotion of temporary files to
// permanent record associations, the revert path and retention sweeping.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	"github.com/rohits-web03/dropkeep/internal/chunk"
	"github.com/rohits-web03/dropkeep/internal/models"
	"github.com/rohits-web03/dropkeep/internal/repositories"
	"github.com/rohits-web03/dropkeep/internal/session"
)

// Actor identifies the authenticated caller: who they are (OwnerID on the
// files they create) and which session their tracked ids live in.
type Actor struct {
	ID        string
	SessionID string
}

// RecordHint is the weak object reference clients send along with uploads.
// It scopes retention and pre-populates the eventual association but grants
// nothing; authorization is re-checked at promotion time.
type RecordHint struct {
	ObjectID    int64
	ObjectClass string
}

// Hook runs after a file is fully stored, e.g. a thumbnail generator. The
// entity passed in is freshly re-fetched.
type Hook interface {
	AfterUpload(ctx context.Context, f *models.File) error
}

// Options configures one logical upload field.
type Options struct {
	Field             string
	Folder            string
	MaxFileSize       int64 // bytes, 0 = unlimited
	MaxFiles          int   // per object, 0 = unlimited
	AllowedExtensions []string
	RenamePattern     string
	Disabled          bool
	ReadOnly          bool
	SweepOnUpload     bool
	SweepThreshold    time.Duration // 0 = environment default
	SweepLimit        int
	DevMode           bool
}

type Service struct {
	opts    Options
	files   repositories.FileStore
	assets  repositories.AssetStore
	chunks  *chunk.Assembler
	tracker session.Tracker
	hook    Hook
	now     func() time.Time
	log     *log.Logger

	// completing collapses concurrent completion attempts for one transfer.
	completing singleflight.Group
}

func NewService(opts Options, files repositories.FileStore, assets repositories.AssetStore, chunks *chunk.Assembler, tracker session.Tracker, logger *log.Logger) (*Service, error) {
	if err := ValidRenamePattern(opts.RenamePattern); err != nil {
		return nil, err
	}
	if opts.Field == "" {
		opts.Field = "file"
	}
	if opts.Folder == "" {
		opts.Folder = "uploads"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		opts:    opts,
		files:   files,
		assets:  assets,
		chunks:  chunks,
		tracker: tracker,
		now:     time.Now,
		log:     logger,
	}, nil
}

// SetHook installs the optional post-upload collaborator.
func (s *Service) SetHook(h Hook) { s.hook = h }

// SetClock overrides the service clock, for deterministic rename patterns
// and sweeps in tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Field returns the logical field name uploads are posted under.
func (s *Service) Field() string { return s.opts.Field }

func (s *Service) gate() error {
	if s.opts.Disabled || s.opts.ReadOnly {
		return ErrDisabled
	}
	return nil
}

// Upload is the single-shot path: validate, optionally rename, store the
// bytes, create a temporary file record and track its id for the session.
func (s *Service) Upload(ctx context.Context, actor Actor, name string, size int64, body io.Reader, hint RecordHint) (*models.File, error) {
	if err := s.gate(); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, name, size, hint); err != nil {
		return nil, err
	}

	name = s.finalName(name)
	contentType, body, err := sniff(body)
	if err != nil {
		return nil, err
	}

	key := s.assetKey(name)
	if err := s.assets.Put(ctx, key, contentType, body); err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	f := &models.File{
		Name:        name,
		ContentType: contentType,
		Size:        size,
		Key:         key,
		Kind:        kindOf(contentType),
		IsTemporary: true,
		OwnerID:     actor.ID,
		ObjectID:    hint.ObjectID,
		ObjectClass: hint.ObjectClass,
	}
	if err := s.files.Create(ctx, f); err != nil {
		return nil, err
	}
	if err := s.tracker.Track(ctx, actor.SessionID, f.ID); err != nil {
		return nil, err
	}
	if s.hook != nil {
		if err := s.hook.AfterUpload(ctx, f); err != nil {
			s.log.Warn("After-upload hook failed", "id", f.ID, "err", err)
		}
	}

	if s.opts.SweepOnUpload {
		// Bounded so a single upload never pays for a huge backlog.
		if _, err := s.Sweep(ctx, true, 100); err != nil {
			s.log.Warn("Post-upload sweep failed", "err", err)
		}
	}
	return f, nil
}

// StartChunk opens a chunked transfer: a fresh temporary file record whose id
// doubles as the transfer id for the HEAD/PATCH requests that follow.
func (s *Service) StartChunk(ctx context.Context, actor Actor, hint RecordHint) (*models.File, error) {
	if err := s.gate(); err != nil {
		return nil, err
	}
	f := &models.File{
		IsTemporary: true,
		OwnerID:     actor.ID,
		ObjectID:    hint.ObjectID,
		ObjectClass: hint.ObjectClass,
	}
	if err := s.files.Create(ctx, f); err != nil {
		return nil, err
	}
	if err := s.tracker.Track(ctx, actor.SessionID, f.ID); err != nil {
		return nil, err
	}
	return f, nil
}

// ChunkOffset reports the next sequence index a resuming client should send.
// Read-only and repeatable.
func (s *Service) ChunkOffset(ctx context.Context, id uint) (int, error) {
	return s.chunks.NextOffset(id)
}

// WriteChunk is the receiving state of the transfer: store one range blob,
// enforce the size limit against the running total, and finish the transfer
// once all declared bytes are present. Returns true when this call completed
// the file.
func (s *Service) WriteChunk(ctx context.Context, id uint, index int, declaredLen int64, name string, body io.Reader) (bool, error) {
	if err := s.gate(); err != nil {
		return false, err
	}

	if _, err := s.chunks.WriteRange(id, index, body); err != nil {
		return false, err
	}

	total, err := s.chunks.TotalSize(id)
	if err != nil {
		return false, err
	}
	if s.opts.MaxFileSize > 0 && total > s.opts.MaxFileSize {
		// Keep the range blobs: the transfer stays resumable.
		return false, fmt.Errorf("%w (%s)", ErrTooLarge, humanize.IBytes(uint64(s.opts.MaxFileSize)))
	}
	if total < declaredLen {
		return false, nil
	}

	// Concurrent PATCHes can both observe completion; collapse them and make
	// the underlying assembly a no-op the second time around.
	_, err, _ = s.completing.Do(strconv.FormatUint(uint64(id), 10), func() (any, error) {
		return nil, s.completeTransfer(ctx, id, name)
	})
	s.completing.Forget(strconv.FormatUint(uint64(id), 10))
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) completeTransfer(ctx context.Context, id uint, name string) error {
	out, total, err := s.chunks.Assemble(id)
	if err == chunk.ErrNoTransfer {
		// Lost the completion race; the winner did the work.
		return nil
	}
	if err != nil {
		return err
	}
	defer out.Close()

	f, err := s.files.ByID(ctx, id)
	if err != nil {
		return err
	}

	name = s.finalName(name)
	contentType, body, err := sniff(out)
	if err != nil {
		return err
	}
	key := s.assetKey(name)
	if err := s.assets.Put(ctx, key, contentType, body); err != nil {
		return fmt.Errorf("storing assembled upload: %w", err)
	}

	f.Name = name
	f.ContentType = contentType
	f.Size = total
	f.Key = key
	f.Kind = kindOf(contentType)
	if err := s.files.Save(ctx, f); err != nil {
		return err
	}

	// Re-fetch so the hook sees the persisted state.
	fresh, err := s.files.ByID(ctx, id)
	if err != nil {
		return err
	}
	if s.hook != nil {
		if err := s.hook.AfterUpload(ctx, fresh); err != nil {
			s.log.Warn("After-upload hook failed", "id", id, "err", err)
		}
	}
	s.log.Info("Chunked upload complete", "id", id, "name", name, "size", humanize.IBytes(uint64(total)))
	return nil
}

// ObjectFiles lists the files committed to a record. Temporary files are
// never included, whatever their object hint says.
func (s *Service) ObjectFiles(ctx context.Context, hint RecordHint) ([]models.File, error) {
	return s.files.ByObject(ctx, hint.ObjectID, hint.ObjectClass)
}

// TrackExisting loads the files already attached to a record and tracks
// their ids for the session. Ids the form was legitimately told about are
// valid candidates for a later save, exactly like fresh uploads.
func (s *Service) TrackExisting(ctx context.Context, actor Actor, hint RecordHint) ([]models.File, error) {
	files, err := s.files.ByObject(ctx, hint.ObjectID, hint.ObjectClass)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := s.tracker.Track(ctx, actor.SessionID, f.ID); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func (s *Service) validate(ctx context.Context, name string, size int64, hint RecordHint) error {
	var msgs []string
	if s.opts.MaxFileSize > 0 && size > s.opts.MaxFileSize {
		msgs = append(msgs, fmt.Sprintf("File size exceeds %s", humanize.IBytes(uint64(s.opts.MaxFileSize))))
	}
	if len(s.opts.AllowedExtensions) > 0 {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
		if !lo.Contains(s.opts.AllowedExtensions, ext) {
			msgs = append(msgs, fmt.Sprintf("Extension %q is not allowed", ext))
		}
	}
	if s.opts.MaxFiles > 0 && hint.ObjectID > 0 {
		existing, err := s.files.ByObject(ctx, hint.ObjectID, hint.ObjectClass)
		if err != nil {
			return err
		}
		if len(existing) >= s.opts.MaxFiles {
			msgs = append(msgs, fmt.Sprintf("You can only upload %d files", s.opts.MaxFiles))
		}
	}
	if len(msgs) > 0 {
		return validationError(s.opts.Field, msgs...)
	}
	return nil
}

func (s *Service) finalName(name string) string {
	if s.opts.RenamePattern != "" {
		name = ChangeFilenameWithPattern(name, s.opts.RenamePattern, s.opts.Field, s.now())
	}
	return SanitizeFilename(name)
}

func (s *Service) assetKey(name string) string {
	return path.Join(s.opts.Folder, uuid.New().String()+"_"+name)
}

// sniff detects the content type from the stream head and hands back a
// reader replaying the consumed bytes.
func sniff(body io.Reader) (string, io.Reader, error) {
	head := make([]byte, 3072)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	head = head[:n]
	mtype := mimetype.Detect(head)
	return mtype.String(), io.MultiReader(bytes.NewReader(head), body), nil
}

func kindOf(contentType string) string {
	if strings.HasPrefix(contentType, "image/") {
		return models.KindImage
	}
	return models.KindFile
}
