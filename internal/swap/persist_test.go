package swap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LineStore {
	t.Helper()
	return NewLineStore(NewBackupManager(t.TempDir()))
}

func countMatching(t *testing.T, path string, match func(string) bool) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if match(line) {
			n++
		}
	}
	return n
}

func TestUpsert_Idempotent(t *testing.T) {
	store := newTestStore(t)
	fstab := filepath.Join(t.TempDir(), "fstab")
	require.NoError(t, os.WriteFile(fstab, []byte("/dev/sda1 / ext4 defaults 0 1\n"), 0644))

	match := MatchFstabSwapLine("/swapfile")
	line := FstabSwapLine("/swapfile")

	require.NoError(t, store.Upsert(fstab, match, line))
	first, err := os.ReadFile(fstab)
	require.NoError(t, err)

	require.NoError(t, store.Upsert(fstab, match, line))
	second, err := os.ReadFile(fstab)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, 1, countMatching(t, fstab, match))
	assert.Contains(t, string(second), "/dev/sda1 / ext4 defaults 0 1")
}

func TestUpsert_ReplacesChangedValue(t *testing.T) {
	store := newTestStore(t)
	conf := filepath.Join(t.TempDir(), "99-swap.conf")
	require.NoError(t, os.WriteFile(conf, []byte("vm.swappiness=60\nnet.ipv4.tcp_syncookies=1\n"), 0644))

	require.NoError(t, store.Upsert(conf, MatchSwappinessLine, SwappinessLine(10)))

	data, err := os.ReadFile(conf)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vm.swappiness=10")
	assert.NotContains(t, string(data), "vm.swappiness=60")
	assert.Contains(t, string(data), "net.ipv4.tcp_syncookies=1")
	assert.Equal(t, 1, countMatching(t, conf, MatchSwappinessLine))
}

func TestUpsert_CreatesMissingFile(t *testing.T) {
	store := newTestStore(t)
	conf := filepath.Join(t.TempDir(), "99-swap.conf")

	require.NoError(t, store.Upsert(conf, MatchSwappinessLine, SwappinessLine(10)))

	info, err := os.Stat(conf)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	data, err := os.ReadFile(conf)
	require.NoError(t, err)
	assert.Equal(t, "vm.swappiness=10\n", string(data))
}

func TestUpsert_BacksUpExistingFile(t *testing.T) {
	root := t.TempDir()
	store := NewLineStore(NewBackupManager(root))
	fstab := filepath.Join(t.TempDir(), "fstab")
	require.NoError(t, os.WriteFile(fstab, []byte("# header\n"), 0644))

	require.NoError(t, store.Upsert(fstab, MatchFstabSwapLine("/swapfile"), FstabSwapLine("/swapfile")))

	backup := filepath.Join(store.Backup.BackupDir, "fstab")
	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "# header\n", string(data))
}

func TestRemove_DeletesMatchingLines(t *testing.T) {
	store := newTestStore(t)
	fstab := filepath.Join(t.TempDir(), "fstab")
	content := "/dev/sda1 / ext4 defaults 0 1\n/swapfile none swap sw 0 0\n"
	require.NoError(t, os.WriteFile(fstab, []byte(content), 0644))

	match := MatchFstabSwapLine("/swapfile")
	require.NoError(t, store.Remove(fstab, match))

	data, err := os.ReadFile(fstab)
	require.NoError(t, err)
	assert.Equal(t, "/dev/sda1 / ext4 defaults 0 1\n", string(data))

	// second removal is a no-op
	require.NoError(t, store.Remove(fstab, match))
	again, err := os.ReadFile(fstab)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestRemove_MissingFileIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Remove(filepath.Join(t.TempDir(), "nope"), MatchSwappinessLine))
}

func TestMatchFstabSwapLine(t *testing.T) {
	match := MatchFstabSwapLine("/swapfile")

	assert.True(t, match("/swapfile none swap sw 0 0"))
	assert.True(t, match("  /swapfile none swap defaults 0 0"))
	assert.False(t, match("# /swapfile none swap sw 0 0"))
	assert.False(t, match("/swapfile2 none swap sw 0 0"))
	assert.False(t, match("/swapfile / ext4 defaults 0 1"))
	assert.False(t, match(""))
}

func TestMatchSwappinessLine(t *testing.T) {
	assert.True(t, MatchSwappinessLine("vm.swappiness=10"))
	assert.True(t, MatchSwappinessLine("vm.swappiness = 60"))
	assert.False(t, MatchSwappinessLine("vm.swappiness_extra=1"))
	assert.False(t, MatchSwappinessLine("# vm.swappiness=10"))
	assert.False(t, MatchSwappinessLine("vm.dirty_ratio=20"))
}
