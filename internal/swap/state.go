package swap

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// FileClass is the result of classifying whatever currently occupies the
// swap file path.
type FileClass int

const (
	// FileAbsent means nothing exists at the path.
	FileAbsent FileClass = iota
	// FileSwap means a swap-formatted file already exists and can be reused.
	FileSwap
	// FileForeign means a regular file exists but carries no swap signature;
	// it must be recreated, never reused.
	FileForeign
)

const (
	swapSignatureV1 = "SWAPSPACE2"
	swapSignatureV0 = "SWAP-SPACE"
)

// mkswap writes its signature in the last 10 bytes of the first page, so the
// offset depends on the kernel's page size (16K/64K pages on some arm64 and
// ppc64 systems).
var swapSignatureOffset = int64(os.Getpagesize() - 10)

// Controller drives the live kernel swap state through swapoff/mkswap/swapon
// and reads /proc/swaps for the active set.
type Controller struct {
	ProcSwaps string
	Run       Runner
}

func NewController() *Controller {
	return &Controller{ProcSwaps: "/proc/swaps", Run: RunCommandSilent}
}

// ListActive returns the device/file column of /proc/swaps.
func (c *Controller) ListActive() ([]string, error) {
	f, err := os.Open(c.ProcSwaps)
	if err != nil {
		return nil, fmt.Errorf("failed to read swap state: %w", err)
	}
	defer f.Close()

	var active []string
	scanner := bufio.NewScanner(f)
	// skip header line
	if !scanner.Scan() {
		return active, nil
	}
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 1 {
			continue
		}
		active = append(active, fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", c.ProcSwaps, err)
	}
	return active, nil
}

// IsActive reports whether path is currently enabled as swap.
func (c *Controller) IsActive(path string) (bool, error) {
	active, err := c.ListActive()
	if err != nil {
		return false, err
	}
	for _, a := range active {
		if a == path {
			return true, nil
		}
	}
	return false, nil
}

// Deactivate disables swap on path. The kernel refuses truncation or
// deletion of active swap backing storage, so this must run before any
// destructive recreation. Deactivating an inactive path is a no-op success.
func (c *Controller) Deactivate(path string) error {
	active, err := c.IsActive(path)
	if err != nil {
		return err
	}
	if !active {
		return nil
	}
	if out, err := c.Run("swapoff", path); err != nil {
		return fmt.Errorf("swapoff %s failed: %w: %s", path, err, strings.TrimSpace(out))
	}
	return nil
}

// Activate formats path as swap space and enables it. Both steps are fatal
// on failure; the error carries a remediation hint keyed to the filesystem
// profile.
func (c *Controller) Activate(path string, profile Profile) error {
	if out, err := c.Run("mkswap", path); err != nil {
		hint := ""
		switch profile {
		case ProfileZvol:
			hint = "; on zfs, file-backed swap is unreliable, consider a dedicated zvol instead"
		case ProfileCoW:
			hint = "; on btrfs, check that the file is nodatacow (lsattr) and hole-free (filefrag -v)"
		}
		return fmt.Errorf("mkswap %s failed: %w: %s%s", path, err, strings.TrimSpace(out), hint)
	}

	if out, err := c.Run("swapon", path); err != nil {
		return fmt.Errorf("swapon %s failed: %w: %s; check 'dmesg | tail' for the kernel's reason", path, err, strings.TrimSpace(out))
	}
	return nil
}

// ClassifyFile reports what occupies path: nothing, a swap-formatted file,
// or a foreign file.
func (c *Controller) ClassifyFile(path string) (FileClass, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return FileAbsent, nil
	}
	if err != nil {
		return FileAbsent, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() || info.Size() < swapSignatureOffset+10 {
		return FileForeign, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return FileForeign, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sig := make([]byte, 10)
	if _, err := f.ReadAt(sig, swapSignatureOffset); err != nil {
		return FileForeign, nil
	}
	if bytes.Equal(sig, []byte(swapSignatureV1)) || bytes.Equal(sig, []byte(swapSignatureV0)) {
		return FileSwap, nil
	}
	return FileForeign, nil
}
