package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewSettingsStore(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "driftp-settings-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	store, err := NewSettingsStore(tempDir)
	if err != nil {
		t.Fatalf("NewSettingsStore failed: %v", err)
	}

	// Verify defaults
	settings := store.Get()
	if settings.DefaultPort != 22 {
		t.Errorf("Expected DefaultPort 22, got %d", settings.DefaultPort)
	}
	if settings.ShowHiddenFiles {
		t.Error("Expected ShowHiddenFiles to be false by default")
	}
	if settings.AutoBackup {
		t.Error("Expected AutoBackup to be false by default")
	}
	if settings.S3Host != "" {
		t.Error("Expected S3Host to be empty by default")
	}

	// Verify persistence file exists
	if _, err := os.Stat(filepath.Join(tempDir, "settings.json")); os.IsNotExist(err) {
		t.Error("settings.json was not created")
	}
}

func TestUpdateShowHiddenFiles(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "driftp-hidden-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	store, err := NewSettingsStore(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SetShowHiddenFiles(true); err != nil {
		t.Fatalf("SetShowHiddenFiles failed: %v", err)
	}

	if !store.Get().ShowHiddenFiles {
		t.Error("ShowHiddenFiles not updated in memory")
	}

	// Reload from disk to verify persistence
	newStore, err := NewSettingsStore(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	if !newStore.Get().ShowHiddenFiles {
		t.Error("ShowHiddenFiles not persisted to disk")
	}
}

func TestS3SettingsPersistence(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "driftp-s3-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	store, err := NewSettingsStore(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	settings := store.Get()
	settings.S3Host = "https://example.com"
	settings.S3AccessKey = "access-key"
	settings.S3SecretKey = "secret-key"
	settings.AutoBackup = true

	if err := store.Update(settings); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// Verify persistence by reloading
	newStore, err := NewSettingsStore(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	loaded := newStore.Get()
	if loaded.S3Host != "https://example.com" {
		t.Errorf("Expected S3Host https://example.com, got %s", loaded.S3Host)
	}
	if loaded.S3AccessKey != "access-key" {
		t.Errorf("Expected S3AccessKey access-key, got %s", loaded.S3AccessKey)
	}
	if !loaded.AutoBackup {
		t.Error("AutoBackup not persisted")
	}
}

func TestDefaultConnectionSettings(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "driftp-conn-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	store, err := NewSettingsStore(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	settings := store.Get()
	settings.DefaultPort = 2222
	settings.DefaultUsername = "deploy"
	if err := store.Update(settings); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	newStore, err := NewSettingsStore(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	loaded := newStore.Get()
	if loaded.DefaultPort != 2222 {
		t.Errorf("Expected DefaultPort 2222, got %d", loaded.DefaultPort)
	}
	if loaded.DefaultUsername != "deploy" {
		t.Errorf("Expected DefaultUsername deploy, got %s", loaded.DefaultUsername)
	}
}
