package upload

import (
	"context"
	"fmt"

	"github.com/rohits-web03/dropkeep/internal/repositories"
)

// Record is the target of a file association: the form's DataObject. The
// surrounding record layer supplies the implementation; the service only
// needs an identity and, for unsaved records, a way to obtain one.
type Record interface {
	RecordID() int64
	RecordClass() string
	// Persist writes the record so it gains an identity. Called at most once,
	// and only when RecordID is still zero.
	Persist(ctx context.Context) error
}

// RecordRef is a Record for callers holding an already-persisted identity,
// such as the HTTP attach endpoint.
type RecordRef struct {
	ID    int64
	Class string
}

func (r RecordRef) RecordID() int64     { return r.ID }
func (r RecordRef) RecordClass() string { return r.Class }

func (r RecordRef) Persist(ctx context.Context) error {
	// The ref points at a record owned by an external layer; it cannot be
	// created from here.
	return ErrNoIdentity
}

// Finalize promotes the candidate file ids to a permanent association with
// rec. The candidate list comes from client-controlled form data, so every
// id must have been tracked by this session; a single untracked id aborts the
// whole operation before anything is mutated. Temporary files additionally
// require the actor to match the original uploader. Files already promoted
// by an earlier save are left untouched.
func (s *Service) Finalize(ctx context.Context, actor Actor, rec Record, ids []uint) error {
	for _, id := range ids {
		ok, err := s.tracker.Contains(ctx, actor.SessionID, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %d", ErrNotTracked, id)
		}
	}

	for _, id := range ids {
		f, err := s.files.ByID(ctx, id)
		if err == repositories.ErrFileNotFound {
			continue
		}
		if err != nil {
			return err
		}
		if !f.IsTemporary {
			// Uploaded and promoted earlier, nothing to do.
			continue
		}

		if rec.RecordID() == 0 {
			if err := rec.Persist(ctx); err != nil {
				return err
			}
			if rec.RecordID() == 0 {
				return ErrNoIdentity
			}
		}
		if actor.ID != "" && actor.ID != f.OwnerID {
			return fmt.Errorf("%w: file %d", ErrOwnerMismatch, id)
		}

		f.IsTemporary = false
		f.ObjectID = rec.RecordID()
		f.ObjectClass = rec.RecordClass()
		if err := s.files.Save(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// Revert cancels an upload the session no longer wants: the file must be
// tracked by this session, still temporary, and owned by the actor. Deletes
// the stored bytes, any in-flight range blobs and the record itself. The
// tracked id stays in the session set; re-tracking a dead id is harmless.
func (s *Service) Revert(ctx context.Context, actor Actor, id uint) error {
	if err := s.gate(); err != nil {
		return err
	}
	ok, err := s.tracker.Contains(ctx, actor.SessionID, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotTracked, id)
	}

	f, err := s.files.ByID(ctx, id)
	if err != nil {
		return err
	}
	if !f.IsTemporary {
		return ErrNotTemporary
	}
	if actor.ID != "" && actor.ID != f.OwnerID {
		return fmt.Errorf("%w: file %d", ErrOwnerMismatch, id)
	}

	if f.Key != "" {
		if err := s.assets.Delete(ctx, f.Key); err != nil {
			return err
		}
	}
	if err := s.chunks.Remove(id); err != nil {
		return err
	}
	return s.files.Delete(ctx, id)
}
