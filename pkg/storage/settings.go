package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings represents persisted application settings
type Settings struct {
	DefaultPort     int    `json:"defaultPort"`
	DefaultUsername string `json:"defaultUsername,omitempty"`
	ShowHiddenFiles bool   `json:"showHiddenFiles"`
	S3Host          string `json:"s3Host,omitempty"`      // S3 Endpoint
	S3AccessKey     string `json:"s3AccessKey,omitempty"` // S3 Access Key
	S3SecretKey     string `json:"s3SecretKey,omitempty"` // S3 Secret Key
	AutoBackup      bool   `json:"autoBackup"`            // Backup data dir on exit
	BackupPassword  string `json:"backupPassword,omitempty"`
}

// SettingsStore manages application settings
type SettingsStore struct {
	settings Settings
	filePath string
	mu       sync.RWMutex
}

// NewSettingsStore creates a new settings store under dataDir
func NewSettingsStore(dataDir string) (*SettingsStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &SettingsStore{
		settings: getDefaultSettings(),
		filePath: filepath.Join(dataDir, "settings.json"),
	}

	if err := store.load(); err != nil {
		// Missing file means first run, persist the defaults
		if !os.IsNotExist(err) {
			return nil, err
		}
		store.save()
	}

	return store, nil
}

func getDefaultSettings() Settings {
	return Settings{
		DefaultPort:     22,
		ShowHiddenFiles: false,
		AutoBackup:      false,
	}
}

func (s *SettingsStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &s.settings)
}

func (s *SettingsStore) save() error {
	data, err := json.MarshalIndent(s.settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	return os.WriteFile(s.filePath, data, 0600)
}

// Get returns current settings
func (s *SettingsStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update replaces the settings and persists them
func (s *SettingsStore) Update(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	return s.save()
}

// SetShowHiddenFiles persists the hidden-file visibility toggle.
func (s *SettingsStore) SetShowHiddenFiles(show bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.ShowHiddenFiles = show
	return s.save()
}

// GetDataDir returns the directory where settings are stored
func (s *SettingsStore) GetDataDir() string {
	return filepath.Dir(s.filePath)
}
