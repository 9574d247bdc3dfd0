package swap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults offered by the interactive prompts.
const (
	DefaultSwapFile   = "/swapfile"
	DefaultSizeToken  = "2G"
	DefaultSwappiness = 10

	DefaultFstab      = "/etc/fstab"
	DefaultSysctlConf = "/etc/sysctl.d/99-swapforge.conf"
)

// ErrInvalidSwappiness is returned for swappiness values outside 0-100.
var ErrInvalidSwappiness = errors.New("swappiness must be between 0 and 100")

// Target is a fully validated request to provision one swap file. It is
// built once per run from the prompts and never mutated afterwards.
type Target struct {
	Path       string
	Size       SizeSpec
	Swappiness int
	Profile    Profile
	// Reuse is set when an existing swap-formatted file at Path should be
	// activated as-is instead of being recreated.
	Reuse bool
}

// NewTarget validates the gathered inputs and builds a Target. Profile and
// Reuse are filled in by the caller after inspection/classification.
func NewTarget(path, sizeToken string, swappiness int) (Target, error) {
	size, err := ParseSize(sizeToken)
	if err != nil {
		return Target{}, err
	}
	if swappiness < 0 || swappiness > 100 {
		return Target{}, fmt.Errorf("%w: got %d", ErrInvalidSwappiness, swappiness)
	}
	if !filepath.IsAbs(path) {
		return Target{}, fmt.Errorf("swap file path must be absolute: %q", path)
	}
	return Target{Path: path, Size: size, Swappiness: swappiness}, nil
}

// Manager sequences the create and uninstall workflows across the
// inspector, allocator, controller and the two persistence files.
type Manager struct {
	Inspector  *Inspector
	Allocator  *Allocator
	Controller *Controller
	Store      *LineStore

	FstabPath  string
	SysctlPath string
	Run        Runner
}

// NewManager wires a manager against the live system.
func NewManager() *Manager {
	backup := NewBackupManager(DefaultBackupRoot)
	return &Manager{
		Inspector:  NewInspector(),
		Allocator:  NewAllocator(),
		Controller: NewController(),
		Store:      NewLineStore(backup),
		FstabPath:  DefaultFstab,
		SysctlPath: DefaultSysctlConf,
		Run:        RunCommandSilent,
	}
}

// Create provisions the swap file described by target, activates it, and
// persists it across reboots. Inputs are validated and confirmed before this
// is called; from here on every step either succeeds or aborts with the
// partial state reported.
func (m *Manager) Create(target Target) error {
	// Active swap at the target path blocks truncation and deletion;
	// disable it before anything destructive.
	if err := m.Controller.Deactivate(target.Path); err != nil {
		return err
	}

	if target.Reuse {
		PrintInfo("Reusing existing swap file at %s", target.Path)
		if err := os.Chmod(target.Path, 0600); err != nil {
			return fmt.Errorf("failed to set permissions on %s: %w", target.Path, err)
		}
	} else {
		PrintInfo("Allocating %s at %s (%s filesystem)...",
			HumanSize(target.Size.Rounded), target.Path, target.Profile)
		outcome, err := m.Allocator.Allocate(target.Path, target.Size.Rounded, target.Profile)
		if err != nil {
			return err
		}
		PrintSuccess("Swap file allocated via %s", outcome.Method)
	}

	PrintInfo("Formatting and activating swap...")
	if err := m.Controller.Activate(target.Path, target.Profile); err != nil {
		// The allocation stays on disk so the operator can inspect it.
		return err
	}
	PrintSuccess("Swap active on %s", target.Path)

	PrintInfo("Persisting to %s...", m.FstabPath)
	if err := m.Store.Upsert(m.FstabPath, MatchFstabSwapLine(target.Path), FstabSwapLine(target.Path)); err != nil {
		return err
	}

	PrintInfo("Persisting swappiness=%d to %s...", target.Swappiness, m.SysctlPath)
	if err := m.Store.Upsert(m.SysctlPath, MatchSwappinessLine, SwappinessLine(target.Swappiness)); err != nil {
		return err
	}
	if out, err := m.Run("sysctl", "-w", fmt.Sprintf("vm.swappiness=%d", target.Swappiness)); err != nil {
		return fmt.Errorf("failed to apply swappiness: %w: %s", err, out)
	}

	return nil
}

// Uninstall deactivates and removes the swap file at path along with its
// fstab and sysctl entries. Every step tolerates the previous run having
// already done its work, so re-running is a no-op success.
func (m *Manager) Uninstall(path string) error {
	active, err := m.Controller.IsActive(path)
	if err != nil {
		return err
	}
	if active {
		PrintInfo("Deactivating swap on %s...", path)
		if err := m.Controller.Deactivate(path); err != nil {
			return err
		}
		PrintSuccess("Swap deactivated")
	} else {
		PrintInfo("%s is not active swap", path)
	}

	if err := m.Store.Remove(m.FstabPath, MatchFstabSwapLine(path)); err != nil {
		return err
	}
	PrintSuccess("Removed %s entry from %s", path, m.FstabPath)

	if FileExists(path) {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
		PrintSuccess("Deleted %s", path)
	}

	if err := m.Store.Remove(m.SysctlPath, MatchSwappinessLine); err != nil {
		return err
	}

	// Reload is best-effort on uninstall; the entry is already gone from disk.
	if out, err := m.Run("sysctl", "--system"); err != nil {
		PrintWarning("sysctl reload failed: %v %s", err, out)
	}

	return nil
}
