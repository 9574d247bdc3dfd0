package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"swapforge/internal/swap"
)

var version = "1.0.0"

func main() {
	var rootCmd = &cobra.Command{
		Use:   "swapforge",
		Short: "Interactive swap file manager for Linux",
		Long: `swapforge

An interactive wizard that creates, persists and removes file-backed swap
space. It detects filesystems with special requirements (btrfs, zfs),
chooses a safe allocation strategy, and keeps /etc/fstab and the sysctl
swappiness setting consistent across reboots.

All modified configuration files are backed up first.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runWizard,
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show current swap state",
		Long:  "Display swap totals and the active swap devices/files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := swap.PrintSwapSummary(swap.NewController()); err != nil {
				return err
			}
			if err := swap.PrintBackups(swap.DefaultBackupRoot); err != nil {
				swap.PrintWarning("Could not list config backups: %v", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(statusCmd)

	if err := rootCmd.Execute(); err != nil {
		swap.PrintError("%v", err)
		os.Exit(1)
	}
}

func runWizard(cmd *cobra.Command, args []string) error {
	banner()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("swapforge is interactive and needs a terminal (try 'swapforge status' for read-only output)")
	}

	if err := swap.CheckRoot(); err != nil {
		return err
	}

	if swap.InContainer() {
		swap.PrintWarning("This looks like a container environment")
		swap.PrintWarning("Swap created here may not behave as expected; proceeding anyway")
	}

	action := swap.PromptDefault("Action: [c]reate or [u]ninstall swap", "c")
	switch strings.ToLower(action) {
	case "u", "uninstall", "d", "disable":
		return runUninstall()
	default:
		return runCreate()
	}
}

func runCreate() error {
	swap.PrintStep("Create Swap File")

	sizeToken := swap.PromptDefault("Swap size (e.g. 512M, 2G)", swap.DefaultSizeToken)
	path := swap.PromptDefault("Swap file path", swap.DefaultSwapFile)
	swappinessStr := swap.PromptDefault("Swappiness (0-100)", strconv.Itoa(swap.DefaultSwappiness))

	swappiness, err := strconv.Atoi(strings.TrimSpace(swappinessStr))
	if err != nil {
		return fmt.Errorf("swappiness must be a number: %q", swappinessStr)
	}

	target, err := swap.NewTarget(path, sizeToken, swappiness)
	if err != nil {
		return err
	}

	mgr := swap.NewManager()
	target.Profile = mgr.Inspector.Inspect(target.Path)
	switch target.Profile {
	case swap.ProfileCoW:
		swap.PrintWarning("Target is on btrfs: the swap file will be created nodatacow and zero-filled")
	case swap.ProfileZvol:
		swap.PrintWarning("Target is on zfs: file-backed swap is unreliable there, a dedicated zvol is the supported setup")
	case swap.ProfileUnknown:
		swap.PrintWarning("Could not determine the target filesystem; assuming no special requirements")
	}

	if free, err := swap.FreeSpace(filepath.Dir(target.Path)); err == nil && free < target.Size.Rounded {
		swap.PrintWarning("Only %s free on the target filesystem for a %s swap file",
			swap.HumanSize(free), swap.HumanSize(target.Size.Rounded))
	}

	fmt.Println()
	fmt.Printf("  Size:       %s\n", swap.HumanSize(target.Size.Rounded))
	fmt.Printf("  Path:       %s\n", target.Path)
	fmt.Printf("  Swappiness: %d\n", target.Swappiness)
	fmt.Printf("  Filesystem: %s\n", target.Profile)
	fmt.Println()

	if !swap.AskUser("Proceed?") {
		swap.PrintInfo("Cancelled, nothing changed")
		return nil
	}

	class, err := mgr.Controller.ClassifyFile(target.Path)
	if err != nil {
		return err
	}
	switch class {
	case swap.FileSwap:
		if swap.AskUser(fmt.Sprintf("%s is already a swap file. Reuse it as-is?", target.Path)) {
			target.Reuse = true
		}
	case swap.FileForeign:
		swap.PrintWarning("%s exists but is not a swap file; it will be replaced", target.Path)
		if !swap.AskUser("Replace it?") {
			swap.PrintInfo("Cancelled, nothing changed")
			return nil
		}
	}

	if err := mgr.Create(target); err != nil {
		return err
	}

	swap.PrintSuccess("Swap configured and persisted")

	if swap.AskUser("Show swap status?") {
		if err := swap.PrintSwapSummary(mgr.Controller); err != nil {
			swap.PrintWarning("%v", err)
		}
	}
	return nil
}

func runUninstall() error {
	swap.PrintStep("Uninstall Swap File")

	path := swap.PromptDefault("Swap file path", swap.DefaultSwapFile)

	if !swap.AskUser(fmt.Sprintf("Remove swap file %s and its configuration?", path)) {
		swap.PrintInfo("Cancelled, nothing changed")
		return nil
	}

	mgr := swap.NewManager()
	if err := mgr.Uninstall(path); err != nil {
		return err
	}

	swap.PrintSuccess("Swap removed")
	return nil
}

func banner() {
	fmt.Println(`
╔══════════════════════════════════════════════════════════╗
║                      swapforge                           ║
║        Swap file provisioning for Linux hosts            ║
╚══════════════════════════════════════════════════════════╝`)
}
