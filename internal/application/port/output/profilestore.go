package output

import (
	"context"

	"marketplace-e2e/internal/domain/entity"
)

// ProfileStore keeps onboarded browser profiles keyed by setup hash.
// Entries become visible only through Commit, so a reader never observes a
// half-provisioned profile.
type ProfileStore interface {
	Path(key string) string
	Exists(key string) (bool, error)
	Lookup(key string) (*entity.CachedProfile, error)
	List() ([]entity.CachedProfile, error)

	// Lock serializes provisioning of key across processes.
	Lock(ctx context.Context, key string) (unlock func() error, err error)
	Stage(key string) (string, error)
	Commit(key, staging string) (*entity.CachedProfile, error)
	Discard(staging string) error
	Invalidate(key string) error

	// Clone copies a committed profile into dst so it can be used without
	// touching the cached copy.
	Clone(key, dst string) error
}
