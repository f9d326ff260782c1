package upload

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/rohits-web03/dropkeep/internal/chunk"
	"github.com/rohits-web03/dropkeep/internal/models"
	"github.com/rohits-web03/dropkeep/internal/repositories"
	"github.com/rohits-web03/dropkeep/internal/session"
)

type fixture struct {
	svc     *Service
	files   *repositories.MemoryFileStore
	assets  *repositories.LocalStore
	chunks  *chunk.Assembler
	tracker session.Tracker
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fs := afero.NewMemMapFs()
	files := repositories.NewMemoryFileStore()
	assets := repositories.NewLocalStore(fs, "storage")
	assembler := chunk.NewAssembler(fs, "chunks")
	tracker := session.NewBadgerTracker(db, time.Hour)

	svc, err := NewService(opts, files, assets, assembler, tracker, nil)
	require.NoError(t, err)

	return &fixture{svc: svc, files: files, assets: assets, chunks: assembler, tracker: tracker}
}

var (
	alice = Actor{ID: "user-alice", SessionID: "sess-a"}
	bob   = Actor{ID: "user-bob", SessionID: "sess-b"}
)

func (f *fixture) assetBytes(t *testing.T, key string) []byte {
	t.Helper()
	r, err := f.assets.Open(key)
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return b
}

func TestUpload_SingleShot(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{Field: "TestUpload"})
	ctx := context.Background()

	body := []byte("%PDF-1.4 some pdf-ish bytes")
	f, err := fx.svc.Upload(ctx, alice, "report.pdf", int64(len(body)), bytes.NewReader(body), RecordHint{ObjectID: 12, ObjectClass: "Page"})
	req.NoError(err)

	req.True(f.IsTemporary)
	req.Equal("user-alice", f.OwnerID)
	req.Equal(int64(12), f.ObjectID)
	req.Equal("Page", f.ObjectClass)
	req.Equal("report.pdf", f.Name)

	// The id is tracked for alice's session only.
	ok, err := fx.tracker.Contains(ctx, alice.SessionID, f.ID)
	req.NoError(err)
	req.True(ok)
	ok, err = fx.tracker.Contains(ctx, bob.SessionID, f.ID)
	req.NoError(err)
	req.False(ok)

	req.Equal(body, fx.assetBytes(t, f.Key))
}

func TestUpload_Validation(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{
		Field:             "TestUpload",
		MaxFileSize:       10,
		AllowedExtensions: []string{"jpg", "png"},
	})
	ctx := context.Background()

	_, err := fx.svc.Upload(ctx, alice, "huge.exe", 100, bytes.NewReader(make([]byte, 100)), RecordHint{})
	var ve *ValidationError
	req.ErrorAs(err, &ve)
	req.Equal("TestUpload", ve.Field)
	req.Len(ve.Messages, 2, "size and extension violations both reported")
}

func TestUpload_DisabledField(t *testing.T) {
	fx := newFixture(t, Options{Disabled: true})
	_, err := fx.svc.Upload(context.Background(), alice, "a.txt", 1, bytes.NewReader([]byte("x")), RecordHint{})
	require.ErrorIs(t, err, ErrDisabled)
}

func TestUpload_RenamePattern(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{Field: "TestUpload", RenamePattern: "{field}_{date}.{extension}"})
	fx.svc.SetClock(func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) })

	f, err := fx.svc.Upload(context.Background(), alice, "mytestfile.jpg", 3, bytes.NewReader([]byte("abc")), RecordHint{})
	req.NoError(err)
	req.Equal("TestUpload_20240315.jpg", f.Name)
}

func TestChunkedTransfer_OutOfOrder(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{Field: "TestUpload"})
	ctx := context.Background()

	f, err := fx.svc.StartChunk(ctx, alice, RecordHint{ObjectID: 5, ObjectClass: "Page"})
	req.NoError(err)
	req.True(f.IsTemporary)

	source := make([]byte, 10000)
	_, err = rand.Read(source)
	req.NoError(err)

	const chunkSize = 4096
	declared := int64(len(source))

	write := func(idx int) (bool, error) {
		start := idx * chunkSize
		end := start + chunkSize
		if end > len(source) {
			end = len(source)
		}
		return fx.svc.WriteChunk(ctx, f.ID, idx, declared, "video.bin", bytes.NewReader(source[start:end]))
	}

	done, err := write(2)
	req.NoError(err)
	req.False(done)

	// Resume probe after the gap: only index 0 is contiguous-missing.
	next, err := fx.svc.ChunkOffset(ctx, f.ID)
	req.NoError(err)
	req.Equal(0, next)

	done, err = write(0)
	req.NoError(err)
	req.False(done)

	next, err = fx.svc.ChunkOffset(ctx, f.ID)
	req.NoError(err)
	req.Equal(1, next)

	done, err = write(1)
	req.NoError(err)
	req.True(done, "final chunk completes the transfer")

	got, err := fx.files.ByID(ctx, f.ID)
	req.NoError(err)
	req.Equal(declared, got.Size)
	req.Equal("video.bin", got.Name)
	req.NotEmpty(got.Key)
	req.True(got.IsTemporary, "completion does not promote the file")

	req.Equal(source, fx.assetBytes(t, got.Key))

	// Range blobs are consumed.
	next, err = fx.svc.ChunkOffset(ctx, f.ID)
	req.NoError(err)
	req.Equal(0, next)
}

func TestChunkedTransfer_SizeLimit(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{Field: "TestUpload", MaxFileSize: 1000})
	ctx := context.Background()

	f, err := fx.svc.StartChunk(ctx, alice, RecordHint{})
	req.NoError(err)

	_, err = fx.svc.WriteChunk(ctx, f.ID, 0, 2000, "big.bin", bytes.NewReader(make([]byte, 1200)))
	req.ErrorIs(err, ErrTooLarge)

	// No completed file, but the transfer stays resumable.
	got, err := fx.files.ByID(ctx, f.ID)
	req.NoError(err)
	req.Empty(got.Key)

	next, err := fx.svc.ChunkOffset(ctx, f.ID)
	req.NoError(err)
	req.Equal(1, next, "partial range blob is preserved")
}

func TestChunkedTransfer_UnknownEntityAtCompletion(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{})
	ctx := context.Background()

	// Transfer id 99 was never created through StartChunk.
	_, err := fx.svc.WriteChunk(ctx, 99, 0, 4, "x.bin", bytes.NewReader([]byte("abcd")))
	req.ErrorIs(err, repositories.ErrFileNotFound)
}

func TestFinalize_PromotesTemporaries(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{})
	ctx := context.Background()

	f, err := fx.svc.Upload(ctx, alice, "a.txt", 5, bytes.NewReader([]byte("hello")), RecordHint{})
	req.NoError(err)

	rec := &fakeRecord{class: "Page"}
	req.NoError(fx.svc.Finalize(ctx, alice, rec, []uint{f.ID}))
	req.Equal(int64(1), rec.id, "unsaved record gets persisted first")

	got, err := fx.files.ByID(ctx, f.ID)
	req.NoError(err)
	req.False(got.IsTemporary)
	req.Equal(rec.id, got.ObjectID)
	req.Equal("Page", got.ObjectClass)

	// A second save leaves the promoted file untouched.
	req.NoError(fx.svc.Finalize(ctx, alice, rec, []uint{f.ID}))
}

func TestFinalize_RejectsUntrackedID(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{})
	ctx := context.Background()

	// Alice uploads; bob's session tries to claim the id.
	f, err := fx.svc.Upload(ctx, alice, "a.txt", 5, bytes.NewReader([]byte("hello")), RecordHint{})
	req.NoError(err)

	err = fx.svc.Finalize(ctx, bob, &fakeRecord{id: 3, class: "Page"}, []uint{f.ID})
	req.ErrorIs(err, ErrNotTracked)

	got, err := fx.files.ByID(ctx, f.ID)
	req.NoError(err)
	req.True(got.IsTemporary, "rejected finalize must not mutate the file")
}

func TestFinalize_RejectsOwnerMismatch(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{})
	ctx := context.Background()

	f, err := fx.svc.Upload(ctx, alice, "a.txt", 5, bytes.NewReader([]byte("hello")), RecordHint{})
	req.NoError(err)

	// Tracked in bob's session (e.g. via a record association) but owned by alice.
	req.NoError(fx.tracker.Track(ctx, bob.SessionID, f.ID))

	err = fx.svc.Finalize(ctx, bob, &fakeRecord{id: 3, class: "Page"}, []uint{f.ID})
	req.ErrorIs(err, ErrOwnerMismatch)

	got, err := fx.files.ByID(ctx, f.ID)
	req.NoError(err)
	req.True(got.IsTemporary)
}

func TestRevert(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{})
	ctx := context.Background()

	f, err := fx.svc.Upload(ctx, alice, "a.txt", 5, bytes.NewReader([]byte("hello")), RecordHint{})
	req.NoError(err)

	// Bob never tracked the id.
	req.ErrorIs(fx.svc.Revert(ctx, bob, f.ID), ErrNotTracked)

	req.NoError(fx.svc.Revert(ctx, alice, f.ID))
	_, err = fx.files.ByID(ctx, f.ID)
	req.ErrorIs(err, repositories.ErrFileNotFound)

	// Deleting again: entity is gone.
	req.ErrorIs(fx.svc.Revert(ctx, alice, f.ID), repositories.ErrFileNotFound)
}

func TestRevert_RejectsPromotedFile(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{})
	ctx := context.Background()

	f, err := fx.svc.Upload(ctx, alice, "a.txt", 5, bytes.NewReader([]byte("hello")), RecordHint{})
	req.NoError(err)
	req.NoError(fx.svc.Finalize(ctx, alice, &fakeRecord{id: 3, class: "Page"}, []uint{f.ID}))

	req.ErrorIs(fx.svc.Revert(ctx, alice, f.ID), ErrNotTemporary)
}

func TestSweep_Threshold(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{SweepThreshold: 24 * time.Hour, SweepLimit: 100})
	ctx := context.Background()

	fresh := &models.File{IsTemporary: true, CreatedAt: time.Now().Add(-2 * time.Minute)}
	stale := &models.File{IsTemporary: true, CreatedAt: time.Now().Add(-48 * time.Hour)}
	promoted := &models.File{IsTemporary: false, CreatedAt: time.Now().Add(-48 * time.Hour)}
	req.NoError(fx.files.Create(ctx, fresh))
	req.NoError(fx.files.Create(ctx, stale))
	req.NoError(fx.files.Create(ctx, promoted))

	// Dry run reports without deleting.
	swept, err := fx.svc.Sweep(ctx, false, 0)
	req.NoError(err)
	req.Len(swept, 1)
	req.Equal(stale.ID, swept[0].ID)
	_, err = fx.files.ByID(ctx, stale.ID)
	req.NoError(err)

	// Real sweep deletes exactly the stale temporary.
	swept, err = fx.svc.Sweep(ctx, true, 0)
	req.NoError(err)
	req.Len(swept, 1)

	_, err = fx.files.ByID(ctx, stale.ID)
	req.ErrorIs(err, repositories.ErrFileNotFound)
	_, err = fx.files.ByID(ctx, fresh.ID)
	req.NoError(err)
	_, err = fx.files.ByID(ctx, promoted.ID)
	req.NoError(err)
}

func TestTrackExisting(t *testing.T) {
	req := require.New(t)
	fx := newFixture(t, Options{})
	ctx := context.Background()

	attached := &models.File{Name: "old.jpg", ObjectID: 7, ObjectClass: "Page"}
	req.NoError(fx.files.Create(ctx, attached))

	files, err := fx.svc.TrackExisting(ctx, bob, RecordHint{ObjectID: 7, ObjectClass: "Page"})
	req.NoError(err)
	req.Len(files, 1)

	// Bob may now re-reference the pre-existing association...
	req.NoError(fx.svc.Finalize(ctx, bob, &fakeRecord{id: 7, class: "Page"}, []uint{attached.ID}))
}

type fakeRecord struct {
	id    int64
	class string
}

func (r *fakeRecord) RecordID() int64     { return r.id }
func (r *fakeRecord) RecordClass() string { return r.class }
func (r *fakeRecord) Persist(ctx context.Context) error {
	r.id = 1
	return nil
}
