// Package chunk persists the range blobs of in-flight chunked transfers and
// reassembles them into a single stream once every range has arrived.
//
// A transfer is a directory named after its transfer id. Each incoming range
// is one blob inside it, named by its decimal sequence index. Ranges may
// arrive in any order and may be re-sent; a re-sent index simply overwrites
// the previous blob.
package chunk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/afero"
)

// ErrNoTransfer is returned when a transfer directory holds no ranges. A
// second completion attempt after a race lands here, which callers treat as
// "already assembled".
var ErrNoTransfer = errors.New("no such transfer")

type Assembler struct {
	fs  afero.Fs
	dir string
}

func NewAssembler(fs afero.Fs, dir string) *Assembler {
	return &Assembler{fs: fs, dir: dir}
}

func (a *Assembler) transferDir(id uint) string {
	return filepath.Join(a.dir, strconv.FormatUint(uint64(id), 10))
}

func (a *Assembler) rangePath(id uint, index int) string {
	return filepath.Join(a.transferDir(id), strconv.Itoa(index))
}

// WriteRange stores one range blob and returns the number of bytes written.
// Writes for distinct indexes are independent; last write wins per index.
func (a *Assembler) WriteRange(id uint, index int, body io.Reader) (int64, error) {
	if err := a.fs.MkdirAll(a.transferDir(id), 0o755); err != nil {
		return 0, err
	}
	f, err := a.fs.Create(a.rangePath(id, index))
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(f, body)
}

// TotalSize sums the sizes of every range blob currently stored for id.
func (a *Assembler) TotalSize(id uint) (int64, error) {
	indexes, err := a.indexes(id)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, idx := range indexes {
		info, err := a.fs.Stat(a.rangePath(id, idx))
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// NextOffset returns the next sequence index a resuming client should send:
// the count of contiguous range blobs starting at index 0. Read-only.
func (a *Assembler) NextOffset(id uint) (int, error) {
	next := 0
	for {
		if ok, err := afero.Exists(a.fs, a.rangePath(id, next)); err != nil {
			return 0, err
		} else if !ok {
			return next, nil
		}
		next++
	}
}

// Assemble concatenates all range blobs in ascending index order into a
// spooled file and removes the transfer directory. Every range is present by
// the time the caller detects completion, so ordered concatenation yields the
// original byte stream regardless of individual range sizes.
//
// Assemble is idempotent: once the ranges are consumed, further calls return
// ErrNoTransfer.
func (a *Assembler) Assemble(id uint) (io.ReadCloser, int64, error) {
	indexes, err := a.indexes(id)
	if err != nil {
		return nil, 0, err
	}
	if len(indexes) == 0 {
		return nil, 0, ErrNoTransfer
	}
	sort.Ints(indexes)

	out, err := afero.TempFile(a.fs, "", "assemble-*")
	if err != nil {
		return nil, 0, err
	}

	var total int64
	for _, idx := range indexes {
		r, err := a.fs.Open(a.rangePath(id, idx))
		if err != nil {
			out.Close()
			a.fs.Remove(out.Name())
			return nil, 0, err
		}
		n, err := io.Copy(out, r)
		r.Close()
		if err != nil {
			out.Close()
			a.fs.Remove(out.Name())
			return nil, 0, fmt.Errorf("copying range %d: %w", idx, err)
		}
		total += n
	}

	if err := a.Remove(id); err != nil {
		out.Close()
		a.fs.Remove(out.Name())
		return nil, 0, err
	}
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		out.Close()
		a.fs.Remove(out.Name())
		return nil, 0, err
	}
	return &spoolReader{File: out, fs: a.fs}, total, nil
}

// Remove discards all range blobs of a transfer.
func (a *Assembler) Remove(id uint) error {
	return a.fs.RemoveAll(a.transferDir(id))
}

// SweepStale removes transfer directories whose newest range blob is older
// than cutoff. Covers transfers that were started but never completed, whose
// blobs would otherwise linger forever. Returns the removed transfer dirs.
func (a *Assembler) SweepStale(cutoff time.Time) ([]string, error) {
	entries, err := afero.ReadDir(a.fs, a.dir)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var removed []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(a.dir, e.Name())
		newest, err := newestMtime(a.fs, dir)
		if err != nil {
			return removed, err
		}
		if newest.Before(cutoff) {
			if err := a.fs.RemoveAll(dir); err != nil {
				return removed, err
			}
			removed = append(removed, e.Name())
		}
	}
	return removed, nil
}

func (a *Assembler) indexes(id uint) ([]int, error) {
	entries, err := afero.ReadDir(a.fs, a.transferDir(id))
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	indexes := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		idx, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

func newestMtime(fs afero.Fs, dir string) (time.Time, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return time.Time{}, err
	}
	var newest time.Time
	for _, e := range entries {
		if e.ModTime().After(newest) {
			newest = e.ModTime()
		}
	}
	if newest.IsZero() {
		// Empty dir: fall back to the dir itself.
		info, err := fs.Stat(dir)
		if err != nil {
			return time.Time{}, err
		}
		newest = info.ModTime()
	}
	return newest, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, afero.ErrFileNotFound) || os.IsNotExist(err)
}

// spoolReader deletes the spool file once the caller is done with it.
type spoolReader struct {
	afero.File
	fs afero.Fs
}

func (s *spoolReader) Close() error {
	name := s.File.Name()
	err := s.File.Close()
	s.fs.Remove(name)
	return err
}
