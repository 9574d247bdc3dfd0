package swap

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LineStore treats a line-oriented configuration file (/etc/fstab, a
// sysctl.d fragment) as a keyed store: at most one line per key after any
// mutation, and every destructive rewrite is preceded by a backup copy.
type LineStore struct {
	Backup *BackupManager
}

func NewLineStore(backup *BackupManager) *LineStore {
	return &LineStore{Backup: backup}
}

// Upsert removes every line matching match from path and appends exactly one
// instance of line. Running it twice with the same arguments leaves the file
// content unchanged. A missing target file is created with mode 0644.
func (ls *LineStore) Upsert(path string, match func(string) bool, line string) error {
	lines, mode, err := ls.readLines(path)
	if err != nil {
		return err
	}

	kept := lines[:0]
	for _, l := range lines {
		if !match(l) {
			kept = append(kept, l)
		}
	}
	kept = append(kept, line)

	return ls.writeLines(path, kept, mode)
}

// Remove deletes every line matching match from path. A missing target file
// is a no-op success.
func (ls *LineStore) Remove(path string, match func(string) bool) error {
	if !FileExists(path) {
		return nil
	}

	lines, mode, err := ls.readLines(path)
	if err != nil {
		return err
	}

	kept := lines[:0]
	removed := false
	for _, l := range lines {
		if match(l) {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	if !removed {
		return nil
	}

	return ls.writeLines(path, kept, mode)
}

func (ls *LineStore) readLines(path string) ([]string, os.FileMode, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, 0644, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, info.Mode(), nil
}

func (ls *LineStore) writeLines(path string, lines []string, mode os.FileMode) error {
	if ls.Backup != nil {
		if err := ls.Backup.BackupFile(path); err != nil {
			return fmt.Errorf("refusing to rewrite %s without a backup: %w", path, err)
		}
	}

	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FstabSwapLine renders the fixed-field fstab entry for a swap file.
func FstabSwapLine(path string) string {
	return fmt.Sprintf("%s none swap sw 0 0", path)
}

// MatchFstabSwapLine matches fstab lines whose device field is exactly path
// and whose filesystem type is swap. Comments and unrelated mounts never
// match.
func MatchFstabSwapLine(path string) func(string) bool {
	return func(line string) bool {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			return false
		}
		fields := strings.Fields(trimmed)
		return len(fields) >= 3 && fields[0] == path && fields[2] == "swap"
	}
}

// SwappinessLine renders the sysctl entry persisting the swappiness value.
func SwappinessLine(value int) string {
	return fmt.Sprintf("vm.swappiness=%d", value)
}

// MatchSwappinessLine matches any line setting vm.swappiness, with or
// without whitespace around the equals sign.
func MatchSwappinessLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "vm.swappiness") {
		return false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "vm.swappiness"))
	return strings.HasPrefix(rest, "=")
}
