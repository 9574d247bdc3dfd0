package swap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Method is the allocation strategy that produced the swap file.
type Method int

const (
	// MethodFallocate is the fast sparse-allocation primitive.
	MethodFallocate Method = iota
	// MethodZeroFill writes the file sequentially in 1 MiB zero blocks.
	MethodZeroFill
)

func (m Method) String() string {
	if m == MethodZeroFill {
		return "zero-fill"
	}
	return "fallocate"
}

// AllocationOutcome describes how the backing file was produced.
type AllocationOutcome struct {
	Method   Method
	HoleFree bool
}

// ErrHolesDetected means a copy-on-write filesystem produced a file with
// unallocated regions despite nodatacow; such a file is unsafe to swap on.
var ErrHolesDetected = errors.New("swap file contains holes")

const zeroFillBlock = 1 * MiB

// Allocator produces the swap backing file. The CoW path never uses
// fallocate: even a successful fallocate on btrfs can leave filesystem-level
// holes or reflinked extents the kernel rejects at swapon time.
type Allocator struct {
	Run   Runner
	Quiet bool
}

func NewAllocator() *Allocator {
	return &Allocator{Run: RunCommandSilent}
}

// Allocate creates a size-byte file at path according to profile. Any
// pre-existing file at path is removed first; the caller has already decided
// against reuse by the time Allocate runs. The file is chmod 0600 before
// returning.
func (a *Allocator) Allocate(path string, size uint64, profile Profile) (AllocationOutcome, error) {
	if err := os.RemoveAll(path); err != nil {
		return AllocationOutcome{}, fmt.Errorf("failed to remove existing file %s: %w", path, err)
	}

	if profile.IsCoW() {
		a.disableCoW(filepath.Dir(path))
	}

	outcome := AllocationOutcome{Method: MethodFallocate}

	if profile.IsCoW() {
		outcome.Method = MethodZeroFill
	} else if !CommandExists("fallocate") {
		outcome.Method = MethodZeroFill
	} else if _, err := a.Run("fallocate", "-l", fmt.Sprintf("%d", size), path); err != nil {
		if !a.Quiet {
			PrintInfo("fallocate failed, falling back to zero-fill...")
		}
		os.Remove(path)
		outcome.Method = MethodZeroFill
	}

	if outcome.Method == MethodZeroFill {
		if err := a.zeroFill(path, size); err != nil {
			os.Remove(path)
			return AllocationOutcome{}, fmt.Errorf("failed to create swap file: %w", err)
		}
	}

	if profile.IsCoW() {
		holeFree, err := verifyNoHoles(path, size)
		if err != nil {
			PrintWarning("Could not verify swap file extents: %v", err)
		} else if !holeFree {
			os.Remove(path)
			return AllocationOutcome{}, ErrHolesDetected
		} else {
			outcome.HoleFree = true
		}
	}

	if err := os.Chmod(path, 0600); err != nil {
		return AllocationOutcome{}, fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	return outcome, nil
}

// disableCoW marks the containing directory nodatacow so the swap file
// inherits the attribute at creation. chattr cannot retrofit +C onto a file
// that already has data, which is why the directory is flagged instead.
// Best-effort: a missing chattr is a warning, not a failure.
func (a *Allocator) disableCoW(dir string) {
	if !CommandExists("chattr") {
		PrintWarning("chattr not found; cannot disable copy-on-write for %s", dir)
		PrintWarning("Swap on btrfs without nodatacow is likely to fail")
		return
	}
	if out, err := a.Run("chattr", "+C", dir); err != nil {
		PrintWarning("chattr +C %s failed: %v %s", dir, err, strings.TrimSpace(out))
	}
}

// zeroFill writes size bytes of zeros in 1 MiB blocks and syncs the result
// to storage before returning.
func (a *Allocator) zeroFill(path string, size uint64) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	block := make([]byte, zeroFillBlock)
	var written uint64
	for written < size {
		n := uint64(zeroFillBlock)
		if size-written < n {
			n = size - written
		}
		if _, err := f.Write(block[:n]); err != nil {
			return err
		}
		written += n
		if !a.Quiet && written%(256*MiB) == 0 {
			PrintInfo("  ... %s / %s written", HumanSize(written), HumanSize(size))
		}
	}

	return f.Sync()
}

// verifyNoHoles checks for unallocated regions using SEEK_HOLE. A fully
// allocated file's first hole is at EOF.
func verifyNoHoles(path string, size uint64) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	off, err := unix.Seek(int(f.Fd()), 0, unix.SEEK_HOLE)
	if err != nil {
		return false, err
	}
	return uint64(off) >= size, nil
}
