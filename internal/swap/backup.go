package swap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// DefaultBackupRoot is where point-in-time copies of modified configuration
// files are kept.
const DefaultBackupRoot = "/root/.swapforge-backups"

// BackupManager copies configuration files aside before they are rewritten.
type BackupManager struct {
	BackupDir string
	Timestamp string
}

// NewBackupManager creates a backup manager rooted at root (DefaultBackupRoot
// in production, a temp dir in tests).
func NewBackupManager(root string) *BackupManager {
	timestamp := time.Now().Format("20060102-150405")
	return &BackupManager{
		BackupDir: filepath.Join(root, timestamp),
		Timestamp: timestamp,
	}
}

// BackupFile copies filePath into the backup directory, preserving its mode.
// A missing source file is not an error; there is nothing to back up.
func (bm *BackupManager) BackupFile(filePath string) error {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	if err := os.MkdirAll(bm.BackupDir, 0700); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	source, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", filePath, err)
	}
	defer source.Close()

	backupPath := filepath.Join(bm.BackupDir, filepath.Base(filePath))
	backup, err := os.Create(backupPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file %s: %w", backupPath, err)
	}
	defer backup.Close()

	if _, err := io.Copy(backup, source); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	if err := os.Chmod(backupPath, info.Mode()); err != nil {
		return fmt.Errorf("failed to preserve permissions: %w", err)
	}

	return nil
}

// PrintBackups shows the configuration backups accumulated under root, so
// the operator knows where to recover an fstab or sysctl file from.
func PrintBackups(root string) error {
	backups, err := ListBackups(root)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println("  Config backups:")
	for _, b := range backups {
		fmt.Printf("    %s\n", filepath.Join(root, b))
	}
	return nil
}

// ListBackups lists all backup timestamps under root.
func ListBackups(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			backups = append(backups, entry.Name())
		}
	}
	return backups, nil
}
