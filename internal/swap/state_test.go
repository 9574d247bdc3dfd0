package swap

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProcSwaps(t *testing.T, entries ...string) string {
	t.Helper()
	content := "Filename\t\t\t\tType\t\tSize\t\tUsed\t\tPriority\n"
	for _, e := range entries {
		content += e + "\n"
	}
	path := filepath.Join(t.TempDir(), "swaps")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestListActive(t *testing.T) {
	ctrl := &Controller{
		ProcSwaps: writeProcSwaps(t,
			"/swapfile                               file\t\t2097148\t\t0\t\t-2",
			"/dev/sda2                               partition\t8388604\t\t0\t\t-3",
		),
		Run: RunCommandSilent,
	}

	active, err := ctrl.ListActive()
	require.NoError(t, err)
	assert.Equal(t, []string{"/swapfile", "/dev/sda2"}, active)
}

func TestListActive_EmptyTable(t *testing.T) {
	ctrl := &Controller{ProcSwaps: writeProcSwaps(t), Run: RunCommandSilent}

	active, err := ctrl.ListActive()
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestDeactivate_InactivePathIsNoop(t *testing.T) {
	rec := &recordingRunner{fn: func(name string, args ...string) (string, error) {
		return "", fmt.Errorf("swapoff must not run for an inactive path")
	}}
	ctrl := &Controller{ProcSwaps: writeProcSwaps(t), Run: rec.run}

	assert.NoError(t, ctrl.Deactivate("/swapfile"))
	assert.Empty(t, rec.commands)
}

func TestDeactivate_ActivePathRunsSwapoff(t *testing.T) {
	rec := &recordingRunner{}
	ctrl := &Controller{
		ProcSwaps: writeProcSwaps(t, "/swapfile file\t2097148\t0\t-2"),
		Run:       rec.run,
	}

	require.NoError(t, ctrl.Deactivate("/swapfile"))
	assert.Equal(t, []string{"swapoff"}, rec.commands)
}

func TestActivate_RunsMkswapThenSwapon(t *testing.T) {
	rec := &recordingRunner{}
	ctrl := &Controller{ProcSwaps: writeProcSwaps(t), Run: rec.run}

	require.NoError(t, ctrl.Activate("/swapfile", ProfileGeneric))
	assert.Equal(t, []string{"mkswap", "swapon"}, rec.commands)
}

func TestActivate_MkswapFailureCarriesProfileHint(t *testing.T) {
	cases := []struct {
		profile Profile
		hint    string
	}{
		{ProfileZvol, "zvol"},
		{ProfileCoW, "nodatacow"},
	}
	for _, tc := range cases {
		rec := &recordingRunner{fn: func(name string, args ...string) (string, error) {
			if name == "mkswap" {
				return "mkswap: error", fmt.Errorf("exit status 1")
			}
			return "", nil
		}}
		ctrl := &Controller{ProcSwaps: writeProcSwaps(t), Run: rec.run}

		err := ctrl.Activate("/swapfile", tc.profile)
		require.Error(t, err)
		assert.Contains(t, err.Error(), tc.hint)
		assert.False(t, rec.called("swapon"))
	}
}

func TestActivate_SwaponFailureSuggestsKernelLog(t *testing.T) {
	rec := &recordingRunner{fn: func(name string, args ...string) (string, error) {
		if name == "swapon" {
			return "swapon: failed", fmt.Errorf("exit status 255")
		}
		return "", nil
	}}
	ctrl := &Controller{ProcSwaps: writeProcSwaps(t), Run: rec.run}

	err := ctrl.Activate("/swapfile", ProfileGeneric)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dmesg")
}

// swapFixture builds a minimal file image carrying sig at the page-size
// dependent signature offset.
func swapFixture(sig string) []byte {
	data := make([]byte, swapSignatureOffset+10)
	copy(data[swapSignatureOffset:], sig)
	return data
}

func TestClassifyFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("absent", func(t *testing.T) {
		ctrl := NewController()
		class, err := ctrl.ClassifyFile(filepath.Join(dir, "missing"))
		require.NoError(t, err)
		assert.Equal(t, FileAbsent, class)
	})

	t.Run("foreign small file", func(t *testing.T) {
		path := filepath.Join(dir, "small")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

		class, err := NewController().ClassifyFile(path)
		require.NoError(t, err)
		assert.Equal(t, FileForeign, class)
	})

	t.Run("foreign large file", func(t *testing.T) {
		path := filepath.Join(dir, "large")
		require.NoError(t, os.WriteFile(path, make([]byte, swapSignatureOffset+10), 0644))

		class, err := NewController().ClassifyFile(path)
		require.NoError(t, err)
		assert.Equal(t, FileForeign, class)
	})

	t.Run("valid swap file", func(t *testing.T) {
		path := filepath.Join(dir, "swapfile")
		require.NoError(t, os.WriteFile(path, swapFixture(swapSignatureV1), 0600))

		class, err := NewController().ClassifyFile(path)
		require.NoError(t, err)
		assert.Equal(t, FileSwap, class)
	})

	t.Run("legacy signature", func(t *testing.T) {
		path := filepath.Join(dir, "oldswap")
		require.NoError(t, os.WriteFile(path, swapFixture(swapSignatureV0), 0600))

		class, err := NewController().ClassifyFile(path)
		require.NoError(t, err)
		assert.Equal(t, FileSwap, class)
	})

	t.Run("signature offset tracks page size", func(t *testing.T) {
		// mkswap places the signature relative to the kernel page size,
		// which is not 4096 everywhere (arm64/ppc64 can run 16K or 64K
		// pages).
		assert.Equal(t, int64(os.Getpagesize()-10), swapSignatureOffset)
	})

	t.Run("directory", func(t *testing.T) {
		class, err := NewController().ClassifyFile(dir)
		require.NoError(t, err)
		assert.Equal(t, FileForeign, class)
	})
}
