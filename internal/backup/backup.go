package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelsos/dash33/internal/logger"
)

const snapshotSuffix = "_snapshot.json"

// DefaultBackupDir returns the directory archives go to when none is given
func DefaultBackupDir(dataDir string) string {
	return filepath.Join(dataDir, "backups")
}

// CreateBackup archives the saved wallet snapshots of dataDir into a zip in backupDir
func CreateBackup(dataDir, backupDir string) (string, error) {
	if dataDir == "" {
		return "", fmt.Errorf("data directory is not set")
	}

	if _, err := os.Stat(dataDir); err != nil {
		return "", fmt.Errorf("failed to read data directory: %w", err)
	}

	if backupDir == "" {
		backupDir = DefaultBackupDir(dataDir)
	}
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	backupFile := filepath.Join(backupDir, fmt.Sprintf("dash33_backup_%s.zip", timestamp))

	zipFile, err := os.Create(backupFile)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	count := 0
	err = filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		added, addErr := AddToZip(path, info, err, dataDir, zipWriter)
		if added {
			count++
		}
		return addErr
	})
	if err != nil {
		zipWriter.Close()
		discard(zipFile, backupFile)
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		discard(zipFile, backupFile)
		return "", fmt.Errorf("failed to finalize backup: %w", err)
	}

	logger.Info("Backup of %d snapshots created: %s", count, backupFile)
	return backupFile, nil
}

// discard removes an unfinished archive
func discard(zipFile *os.File, backupFile string) {
	zipFile.Close()
	if err := os.Remove(backupFile); err != nil {
		logger.Warn("Failed to remove incomplete backup %s: %v", backupFile, err)
	}
}

// AddToZip adds path to the archive when it is a snapshot file and reports whether it did
func AddToZip(path string, info os.FileInfo, err error, dataDir string, zipWriter *zip.Writer) (bool, error) {
	if err != nil {
		return false, err
	}

	if path == dataDir {
		return false, nil
	}

	relPath, err := filepath.Rel(dataDir, path)
	if err != nil {
		return false, fmt.Errorf("failed to get relative path: %w", err)
	}

	if !ShouldIncludeInBackup(relPath, info.IsDir()) {
		if info.IsDir() {
			logger.Debug("Skipping directory: %s", relPath)
			return false, filepath.SkipDir
		}
		logger.Debug("Skipping file: %s", relPath)
		return false, nil
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return false, fmt.Errorf("failed to create file header: %w", err)
	}

	header.Name = relPath
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return false, fmt.Errorf("failed to create file in zip: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(writer, file); err != nil {
		return false, fmt.Errorf("failed to copy file contents: %w", err)
	}

	logger.Debug("Added snapshot to backup: %s", relPath)
	return true, nil
}

// ShouldIncludeInBackup keeps only snapshot files at the top of the data directory
func ShouldIncludeInBackup(relPath string, isDir bool) bool {
	if isDir || strings.Contains(relPath, string(filepath.Separator)) {
		return false
	}
	return strings.HasSuffix(relPath, snapshotSuffix)
}
