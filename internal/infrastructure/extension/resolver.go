// Package extension locates an unpacked MetaMask build that Chromium can
// load with --load-extension, downloading the pinned release when needed.
package extension

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/errs"

	"marketplace-e2e/internal/application/port/output"
)

// Error is the class of extension resolution errors.
var Error = errs.Class("extension")

var _ output.ExtensionResolver = (*Resolver)(nil)

const (
	releaseURLTemplate = "https://github.com/MetaMask/metamask-extension/releases/download/v%[1]s/metamask-chrome-%[1]s.zip"
	manifestFile       = "manifest.json"
	maxArchiveSize     = 200 << 20
	extensionsDirName  = "extensions"
)

type Config struct {
	// Path to an already unpacked extension. Wins over downloading.
	Path    string
	Version string
	// CacheRoot is the wallet cache root; builds unpack under its
	// extensions directory.
	CacheRoot string
	// URL overrides the release download location.
	URL string
}

type Resolver struct {
	cfg    Config
	client *http.Client
	logger output.LoggerPort
}

func NewResolver(cfg Config, client *http.Client, logger output.LoggerPort) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Resolver{cfg: cfg, client: client, logger: logger}
}

func (r *Resolver) releaseURL() string {
	if r.cfg.URL != "" {
		return r.cfg.URL
	}
	return fmt.Sprintf(releaseURLTemplate, r.cfg.Version)
}

func (r *Resolver) extensionsDir() string {
	return filepath.Join(r.cfg.CacheRoot, extensionsDirName)
}

// Dir is where the configured release is unpacked.
func (r *Resolver) Dir() string {
	return filepath.Join(r.extensionsDir(), "metamask-"+r.cfg.Version)
}

func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if r.cfg.Path != "" {
		if !hasManifest(r.cfg.Path) {
			return "", Error.New("no %s in METAMASK_EXTENSION_PATH=%q", manifestFile, r.cfg.Path)
		}
		return filepath.Abs(r.cfg.Path)
	}
	if r.cfg.Version == "" {
		return "", Error.New("neither extension path nor version configured")
	}

	dir := r.Dir()
	if hasManifest(dir) {
		return dir, nil
	}

	r.logger.Info("Downloading MetaMask extension", "version", r.cfg.Version, "url", r.releaseURL())

	archive, err := r.download(ctx)
	if err != nil {
		return "", err
	}
	defer os.Remove(archive)

	tmp, err := os.MkdirTemp(filepath.Dir(dir), ".unpack-")
	if err != nil {
		return "", Error.Wrap(err)
	}
	defer os.RemoveAll(tmp)

	if err := unzip(archive, tmp); err != nil {
		return "", err
	}

	root := tmp
	if !hasManifest(root) {
		// some releases wrap everything in a single top-level folder
		entries, _ := os.ReadDir(tmp)
		if len(entries) == 1 && entries[0].IsDir() && hasManifest(filepath.Join(tmp, entries[0].Name())) {
			root = filepath.Join(tmp, entries[0].Name())
		} else {
			return "", Error.New("downloaded archive has no %s", manifestFile)
		}
	}

	if err := os.Rename(root, dir); err != nil {
		if hasManifest(dir) {
			return dir, nil
		}
		return "", Error.Wrap(err)
	}
	return dir, nil
}

func (r *Resolver) download(ctx context.Context) (string, error) {
	if err := os.MkdirAll(r.extensionsDir(), 0o755); err != nil {
		return "", Error.Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.releaseURL(), nil)
	if err != nil {
		return "", Error.Wrap(err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", Error.New("download %s: %w", r.releaseURL(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", Error.New("download %s: unexpected status %s", r.releaseURL(), resp.Status)
	}

	f, err := os.CreateTemp(r.extensionsDir(), "metamask-*.zip")
	if err != nil {
		return "", Error.Wrap(err)
	}
	n, err := io.Copy(f, io.LimitReader(resp.Body, maxArchiveSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", Error.Wrap(err)
	}
	if n > maxArchiveSize {
		os.Remove(f.Name())
		return "", Error.New("extension archive exceeds %d bytes", maxArchiveSize)
	}
	return f.Name(), nil
}

func unzip(archive, dst string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return Error.New("open archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		target := filepath.Join(dst, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(dst)+string(os.PathSeparator)) {
			return Error.New("illegal path in archive: %q", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return Error.Wrap(err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Error.Wrap(err)
	}
	rc, err := f.Open()
	if err != nil {
		return Error.Wrap(err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return Error.Wrap(err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return Error.Wrap(err)
	}
	return Error.Wrap(out.Close())
}

func hasManifest(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, manifestFile))
	return err == nil && !info.IsDir()
}
