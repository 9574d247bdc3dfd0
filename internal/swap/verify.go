package swap

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
)

// PrintSwapSummary shows the kernel's view of swap after a change: totals
// from the VM subsystem plus the active swap devices/files.
func PrintSwapSummary(ctrl *Controller) error {
	sm, err := mem.SwapMemory()
	if err != nil {
		return fmt.Errorf("failed to read swap memory stats: %w", err)
	}

	PrintStep("Swap Status")
	fmt.Printf("  Total: %s\n", HumanSize(sm.Total))
	fmt.Printf("  Used:  %s (%.1f%%)\n", HumanSize(sm.Used), sm.UsedPercent)
	fmt.Printf("  Free:  %s\n", HumanSize(sm.Free))

	active, err := ctrl.ListActive()
	if err != nil {
		return err
	}
	if len(active) == 0 {
		PrintWarning("No active swap devices")
		return nil
	}
	fmt.Println()
	fmt.Println("  Active swap:")
	for _, path := range active {
		fmt.Printf("    %s\n", path)
	}
	return nil
}
