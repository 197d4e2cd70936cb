// Package fs provides file-based storage for harvested model records.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/fwojciec/cardgap"
	"github.com/gofrs/flock"
)

// lockRetryDelay is how often a blocked Lock retries.
const lockRetryDelay = 100 * time.Millisecond

// batchRe matches intermediate snapshot names: {tag}_{start}_{end}.json
var batchRe = regexp.MustCompile(`^(.+)_(\d+)_(\d+)\.json$`)

// Ensure SnapshotStore implements cardgap.SnapshotStore at compile time.
var _ cardgap.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore implements cardgap.SnapshotStore with JSON files in a
// single directory:
//
//	{dir}/{tag}_{start}_{end}.json  intermediate batches
//	{dir}/{tag}.json                final snapshot
//	{dir}/{tag}.lock                harvest lock
//
// Each file is a JSON array of {id: [headers...]} objects. Files are written
// to a temporary name and renamed so readers never see partial snapshots.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates a new SnapshotStore rooted at dir.
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir}
}

// Dir returns the directory holding the snapshots.
func (s *SnapshotStore) Dir() string {
	return s.dir
}

// FinalPath returns the path of a tag's final snapshot.
func (s *SnapshotStore) FinalPath(tag string) string {
	return filepath.Join(s.dir, tag+".json")
}

// BatchPath returns the path of a tag's intermediate snapshot for [start, end).
func (s *SnapshotStore) BatchPath(tag string, start, end int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%d_%d.json", tag, start, end))
}

// WriteBatch writes an intermediate snapshot.
func (s *SnapshotStore) WriteBatch(ctx context.Context, tag string, start, end int, records []*cardgap.ModelRecord) error {
	if err := cardgap.ValidateTag(tag); err != nil {
		return err
	}
	if start < 0 || end < start {
		return cardgap.Errorf(cardgap.EINVALID, "invalid batch range [%d, %d)", start, end)
	}
	return writeRecords(s.BatchPath(tag, start, end), records)
}

// WriteFinal writes the final snapshot of a tag.
func (s *SnapshotStore) WriteFinal(ctx context.Context, tag string, records []*cardgap.ModelRecord) error {
	if err := cardgap.ValidateTag(tag); err != nil {
		return err
	}
	return writeRecords(s.FinalPath(tag), records)
}

// Exists reports whether the final snapshot of a tag exists.
func (s *SnapshotStore) Exists(ctx context.Context, tag string) (bool, error) {
	if err := cardgap.ValidateTag(tag); err != nil {
		return false, err
	}

	_, err := os.Stat(s.FinalPath(tag))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Reset removes the batches and final snapshot of a tag.
func (s *SnapshotStore) Reset(ctx context.Context, tag string) error {
	if err := cardgap.ValidateTag(tag); err != nil {
		return err
	}

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, name := range snapshotFiles(entries, tag) {
		err := os.Remove(filepath.Join(s.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads the batches of each tag in range order followed by its final
// snapshot. Repeated tags are read once and each model ID is kept at its
// first occurrence.
func (s *SnapshotStore) Load(ctx context.Context, tags []string) ([]*cardgap.ModelRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []*cardgap.ModelRecord
	seenTags := make(map[string]bool)
	seenIDs := make(map[string]bool)

	for _, tag := range tags {
		if err := cardgap.ValidateTag(tag); err != nil {
			return nil, err
		}
		if seenTags[tag] {
			continue
		}
		seenTags[tag] = true

		for _, name := range snapshotFiles(entries, tag) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			recs, err := readRecords(filepath.Join(s.dir, name))
			if err != nil {
				return nil, err
			}
			for _, r := range recs {
				if r == nil || seenIDs[r.ID] {
					continue
				}
				seenIDs[r.ID] = true
				records = append(records, r)
			}
		}
	}

	return records, nil
}

// Lock acquires the harvest lock of a tag.
func (s *SnapshotStore) Lock(ctx context.Context, tag string) (func() error, error) {
	if err := cardgap.ValidateTag(tag); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(s.dir, tag+".lock"))
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire lock for %q: %w", tag, err)
	}
	if !ok {
		return nil, cardgap.Errorf(cardgap.ECONFLICT, "tag %q is locked by another harvest", tag)
	}
	return lock.Unlock, nil
}

// snapshotFiles returns the snapshot names of a tag: batches ordered by
// start position, then the final snapshot.
func snapshotFiles(entries []os.DirEntry, tag string) []string {
	type batch struct {
		name  string
		start int
	}

	var batches []batch
	final := ""
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == tag+".json" {
			final = name
			continue
		}
		m := batchRe.FindStringSubmatch(name)
		if m == nil || m[1] != tag {
			continue
		}
		start, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		batches = append(batches, batch{name: name, start: start})
	}

	sort.Slice(batches, func(i, j int) bool { return batches[i].start < batches[j].start })

	names := make([]string, 0, len(batches)+1)
	for _, b := range batches {
		names = append(names, b.name)
	}
	if final != "" {
		names = append(names, final)
	}
	return names
}

func readRecords(path string) ([]*cardgap.ModelRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []*cardgap.ModelRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// writeRecords writes records to a temporary file next to path and renames
// it into place.
func writeRecords(path string, records []*cardgap.ModelRecord) error {
	if records == nil {
		records = []*cardgap.ModelRecord{}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(records); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
