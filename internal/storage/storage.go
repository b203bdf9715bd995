package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/kelsos/dash33/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EnsureDataDir creates the data directory if it does not exist yet
func EnsureDataDir(dir string) error {
	if dir == "" {
		return errors.New("data directory is not set")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// GetSnapshotFilePath returns the path of the snapshot file for a wallet
func GetSnapshotFilePath(dir, walletID string) (string, error) {
	walletID = strings.TrimSpace(walletID)
	if walletID == "" {
		return "", errors.New("wallet id is required")
	}

	// escaping is one-to-one and leaves no separators, so distinct ids get distinct files inside dir
	name := url.PathEscape(walletID)
	return filepath.Join(dir, fmt.Sprintf("%s_snapshot.json", name)), nil
}

// SaveSnapshot writes the snapshot to the data directory
func SaveSnapshot(dir string, snapshot *models.WalletSnapshot) error {
	if snapshot == nil {
		return errors.New("no snapshot to save")
	}

	if err := EnsureDataDir(dir); err != nil {
		return err
	}

	filePath, err := GetSnapshotFilePath(dir, snapshot.WalletID)
	if err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(filePath, jsonData, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	return nil
}

// LoadSnapshot reads the last saved snapshot of a wallet. It returns nil
// without an error when nothing was saved yet.
func LoadSnapshot(dir, walletID string) (*models.WalletSnapshot, error) {
	filePath, err := GetSnapshotFilePath(dir, walletID)
	if err != nil {
		return nil, err
	}

	fileData, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snapshot models.WalletSnapshot
	if err := json.Unmarshal(fileData, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
