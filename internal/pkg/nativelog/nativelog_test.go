package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDirPrefersEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvLogDir, dir)
	assert.Equal(t, dir, ResolveDir())

	t.Setenv(EnvLogDir, " ")
	assert.Equal(t, filepath.Join(".", "logs"), ResolveDir())
}

func TestDailyFileRotates(t *testing.T) {
	dir := t.TempDir()
	f, err := OpenDailyFile(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	day := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return day }
	_, err = f.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = f.Write([]byte("again\n"))
	require.NoError(t, err)

	f.now = func() time.Time { return day.Add(24 * time.Hour) }
	_, err = f.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	first, err := os.ReadFile(filepath.Join(dir, "nested", "logoforge-2026-03-04.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nagain\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "nested", Filename(day.Add(24*time.Hour))))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(second))
}

func TestDailyFileIgnoresEmptyWrites(t *testing.T) {
	f, err := OpenDailyFile(t.TempDir())
	require.NoError(t, err)

	n, err := f.Write(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, f.Sync())
	assert.NoError(t, f.Close())
}
