package cardgap

import "context"

// SnapshotStore persists harvested model records per tag.
//
// A harvest writes intermediate batches with WriteBatch and the remaining
// records with WriteFinal. A tag counts as cached once its final snapshot
// exists. Load returns the records of every snapshot of the given tags.
type SnapshotStore interface {
	// WriteBatch writes the records harvested for positions [start, end).
	WriteBatch(ctx context.Context, tag string, start, end int, records []*ModelRecord) error

	// WriteFinal writes the records remaining at the end of a harvest and
	// marks the tag as cached.
	WriteFinal(ctx context.Context, tag string, records []*ModelRecord) error

	// Exists reports whether the final snapshot of a tag exists.
	Exists(ctx context.Context, tag string) (bool, error)

	// Reset removes every snapshot of a tag so a new harvest starts from
	// nothing. The caller must hold the tag's lock.
	Reset(ctx context.Context, tag string) error

	// Load reads all snapshots of the given tags. Tags without snapshots
	// contribute nothing. Each model ID is returned once.
	Load(ctx context.Context, tags []string) ([]*ModelRecord, error)

	// Lock acquires an exclusive lock on a tag, blocking until it is held
	// or ctx is done. The returned function releases it.
	Lock(ctx context.Context, tag string) (unlock func() error, err error)
}

// ValidateTag returns an error if the tag cannot name a snapshot.
func ValidateTag(tag string) error {
	if tag == "" {
		return Errorf(EINVALID, "tag required")
	}
	for _, r := range tag {
		if r == '/' || r == '\\' || r == 0 {
			return Errorf(EINVALID, "tag %q contains invalid character %q", tag, r)
		}
	}
	if tag == "." || tag == ".." {
		return Errorf(EINVALID, "tag %q is invalid", tag)
	}
	return nil
}
