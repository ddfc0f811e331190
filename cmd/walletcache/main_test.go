package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-e2e/internal/domain/entity"
	"marketplace-e2e/internal/infrastructure/env"
)

func run(t *testing.T, vars map[string]string, args ...string) (string, error) {
	t.Helper()
	a := &app{env: env.NewEnvServiceFromMap(vars)}
	t.Cleanup(a.close)

	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func vars(root string) map[string]string {
	return map[string]string{"WALLET_CACHE_DIR": root, "LOG_LEVEL": "error"}
}

func currentHash() string {
	return entity.NewWalletSetupConfig("", 0, "", "", "", "").Hash()
}

func TestStatus(t *testing.T) {
	root := t.TempDir()

	out, err := run(t, vars(root), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "hash:   "+currentHash())
	assert.Contains(t, out, "cache:  miss")

	require.NoError(t, os.MkdirAll(filepath.Join(root, currentHash()), 0o755))
	out, err = run(t, vars(root), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "cache:  hit")
}

func TestListAndInvalidate(t *testing.T) {
	root := t.TempDir()

	out, err := run(t, vars(root), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no cached profiles")

	require.NoError(t, os.MkdirAll(filepath.Join(root, currentHash()), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "0123456789abcdef0123"), 0o755))

	out, err = run(t, vars(root), "list")
	require.NoError(t, err)
	assert.Contains(t, out, currentHash())
	assert.Contains(t, out, "(current)")
	assert.Contains(t, out, "0123456789abcdef0123")

	out, err = run(t, vars(root), "invalidate")
	require.NoError(t, err)
	assert.Contains(t, out, "invalidated "+currentHash())
	assert.NoDirExists(t, filepath.Join(root, currentHash()))
	assert.DirExists(t, filepath.Join(root, "0123456789abcdef0123"))

	_, err = run(t, vars(root), "invalidate", "0123456789abcdef0123")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(root, "0123456789abcdef0123"))
}

func TestInvalidate_RejectsPaths(t *testing.T) {
	_, err := run(t, vars(t.TempDir()), "invalidate", "../etc")
	require.Error(t, err)
}

func TestInvalidate_KeepsExtensionBuilds(t *testing.T) {
	root := t.TempDir()
	build := filepath.Join(root, "extensions", "metamask-11.16.0")
	require.NoError(t, os.MkdirAll(build, 0o755))

	_, err := run(t, vars(root), "invalidate", "extensions")
	require.Error(t, err)
	assert.DirExists(t, build)
}

func TestProvision_FailsWithoutCredentials(t *testing.T) {
	root := t.TempDir()

	_, err := run(t, vars(root), "provision")
	require.Error(t, err)
	assert.NoDirExists(t, filepath.Join(root, currentHash()))
}

func TestInvalidConfigIsFatal(t *testing.T) {
	v := vars(t.TempDir())
	v["WALLET_ADDRESS"] = "0x123"

	_, err := run(t, v, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WALLET_ADDRESS")
}
