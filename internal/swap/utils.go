package swap

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	colorSuccess = color.New(color.FgGreen, color.Bold)
	colorError   = color.New(color.FgRed, color.Bold)
	colorWarning = color.New(color.FgYellow, color.Bold)
	colorInfo    = color.New(color.FgCyan)
	colorStep    = color.New(color.FgMagenta, color.Bold)
)

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	colorSuccess.Print("✓ ")
	fmt.Printf(format+"\n", args...)
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	colorError.Print("✗ ")
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	colorWarning.Print("⚠ ")
	fmt.Printf(format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	colorInfo.Print("ℹ ")
	fmt.Printf(format+"\n", args...)
}

// PrintStep prints a step header
func PrintStep(format string, args ...interface{}) {
	fmt.Println()
	colorStep.Printf("▶ "+format+"\n", args...)
	fmt.Println("────────────────────────────────────────────────────────")
}

// CheckRoot checks if the program is running as root
func CheckRoot() error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("this program must be run as root (use sudo)")
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AskUser prompts the user with a question and returns true for yes, false for no
func AskUser(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s (y/n): ", question)
		input, _ := reader.ReadString('\n')
		input = strings.ToLower(strings.TrimSpace(input))

		if input == "y" || input == "yes" {
			return true
		}
		if input == "n" || input == "no" {
			return false
		}
		PrintWarning("Please answer 'y' or 'n'")
	}
}

// PromptDefault asks for a value, returning def when the user just hits Enter.
func PromptDefault(question, def string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [%s]: ", question, def)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}
