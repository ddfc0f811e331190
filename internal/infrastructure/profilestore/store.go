// Package profilestore keeps onboarded browser profiles on disk, one
// directory per wallet setup hash.
package profilestore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/otiai10/copy"
	"github.com/zeebo/errs"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

var (
	// Error is the class of profile store errors.
	Error = errs.Class("profilestore")

	ErrNotFound = errors.New("profile not found")
)

var _ output.ProfileStore = (*Store)(nil)

const (
	manifestName = ".walletcache.json"
	stagingDir   = ".staging"
	locksDir     = ".locks"

	lockPollInterval = 200 * time.Millisecond
)

// ReservedKeys are cache root entries owned by other components. The
// extension resolver unpacks MetaMask builds under "extensions".
var ReservedKeys = map[string]bool{
	"extensions": true,
}

// chrome leaves these behind while running; they are host specific and must
// not travel with a cloned profile.
var volatileFiles = map[string]bool{
	"SingletonLock":   true,
	"SingletonCookie": true,
	"SingletonSocket": true,
	"lockfile":        true,
}

type manifest struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a filesystem backed output.ProfileStore. Profiles are built in
// <root>/.staging and renamed into <root>/<key> once complete.
type Store struct {
	root string
	now  func() time.Time
}

func New(root string) (*Store, error) {
	if root == "" {
		return nil, Error.New("cache root is empty")
	}
	for _, dir := range []string{root, filepath.Join(root, stagingDir), filepath.Join(root, locksDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, Error.New("unable to create directory=%q: %w", dir, err)
		}
	}
	return &Store{root: root, now: time.Now}, nil
}

func (s *Store) Root() string { return s.root }

func (s *Store) Path(key string) string {
	return filepath.Join(s.root, key)
}

func (s *Store) Exists(key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	info, err := os.Stat(s.Path(key))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, Error.Wrap(err)
	}
	return info.IsDir(), nil
}

func (s *Store) Lookup(key string) (*entity.CachedProfile, error) {
	ok, err := s.Exists(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, Error.Wrap(ErrNotFound)
	}
	return s.describe(key)
}

func (s *Store) describe(key string) (*entity.CachedProfile, error) {
	dir := s.Path(key)
	profile := &entity.CachedProfile{Key: key, Dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err == nil {
		var m manifest
		if err := json.Unmarshal(data, &m); err == nil {
			profile.CreatedAt = m.CreatedAt
			return profile, nil
		}
	}

	// profiles written by other tools carry no manifest
	info, err := os.Stat(dir)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	profile.CreatedAt = info.ModTime()
	return profile, nil
}

func (s *Store) List() ([]entity.CachedProfile, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	var out []entity.CachedProfile
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || ReservedKeys[strings.ToLower(e.Name())] {
			continue
		}
		p, err := s.describe(e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// Lock blocks until this process is the only one allowed to provision key,
// or ctx is done.
func (s *Store) Lock(ctx context.Context, key string) (func() error, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	fh, err := os.OpenFile(filepath.Join(s.root, locksDir, key+".lock"), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, Error.New("unable to create lock file: %w", err)
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		ok, err := tryFlock(fh)
		if err != nil {
			_ = fh.Close()
			return nil, Error.New("unable to flock: %w", err)
		}
		if ok {
			return fh.Close, nil
		}
		select {
		case <-ctx.Done():
			_ = fh.Close()
			return nil, Error.New("waiting for provisioning lock on %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Store) Stage(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp(filepath.Join(s.root, stagingDir), key+"-")
	if err != nil {
		return "", Error.Wrap(err)
	}
	return dir, nil
}

// Commit publishes a fully provisioned staging directory under key. If key
// is already present the staging copy is dropped and the existing profile
// wins.
func (s *Store) Commit(key, staging string) (*entity.CachedProfile, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if !s.isStaging(staging) {
		return nil, Error.New("%q is not a staging directory of this store", staging)
	}

	m := manifest{Key: key, CreatedAt: s.now().UTC()}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := os.WriteFile(filepath.Join(staging, manifestName), data, 0o644); err != nil {
		return nil, Error.Wrap(err)
	}

	if ok, err := s.Exists(key); err != nil {
		return nil, err
	} else if ok {
		_ = os.RemoveAll(staging)
		return s.describe(key)
	}

	if err := os.Rename(staging, s.Path(key)); err != nil {
		return nil, Error.New("publishing profile %s: %w", key, err)
	}
	return &entity.CachedProfile{Key: key, Dir: s.Path(key), CreatedAt: m.CreatedAt}, nil
}

func (s *Store) Discard(staging string) error {
	if staging == "" {
		return nil
	}
	if !s.isStaging(staging) {
		return Error.New("%q is not a staging directory of this store", staging)
	}
	return Error.Wrap(os.RemoveAll(staging))
}

// Invalidate removes a profile. The directory is first moved out of the way
// so a concurrent Exists never sees a partially deleted profile.
func (s *Store) Invalidate(key string) error {
	ok, err := s.Exists(key)
	if err != nil || !ok {
		return err
	}
	trash, err := os.MkdirTemp(filepath.Join(s.root, stagingDir), "trash-")
	if err != nil {
		return Error.Wrap(err)
	}
	target := filepath.Join(trash, key)
	if err := os.Rename(s.Path(key), target); err != nil {
		_ = os.RemoveAll(trash)
		return Error.New("invalidating %s: %w", key, err)
	}
	return Error.Wrap(os.RemoveAll(trash))
}

func (s *Store) Clone(key, dst string) error {
	ok, err := s.Exists(key)
	if err != nil {
		return err
	}
	if !ok {
		return Error.Wrap(ErrNotFound)
	}
	err = copy.Copy(s.Path(key), dst, copy.Options{
		Skip: func(_ os.FileInfo, src, _ string) (bool, error) {
			return volatileFiles[filepath.Base(src)], nil
		},
		OnSymlink: func(string) copy.SymlinkAction {
			return copy.Skip
		},
	})
	return Error.Wrap(err)
}

func (s *Store) isStaging(dir string) bool {
	rel, err := filepath.Rel(filepath.Join(s.root, stagingDir), dir)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..") && !strings.ContainsRune(rel, filepath.Separator)
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) {
		return Error.New("invalid profile key %q", key)
	}
	if ReservedKeys[strings.ToLower(key)] {
		return Error.New("profile key %q is reserved", key)
	}
	return nil
}
