package backup

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	password := "test-password-123"
	testData := []byte("This is secret test data")

	env, err := Encrypt(testData, password)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if env.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", env.Version)
	}
	if env.Salt == "" || env.Nonce == "" || env.EncryptedData == "" {
		t.Error("Envelope missing required fields")
	}

	decrypted, err := Decrypt(env, password)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	if !bytes.Equal(decrypted, testData) {
		t.Errorf("Decrypted data doesn't match. Got %s, want %s", decrypted, testData)
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	env, err := Encrypt([]byte("Secret data"), "correct-password")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	_, err = Decrypt(env, "wrong-password")
	if err == nil {
		t.Error("Expected decryption to fail with wrong password, but it succeeded")
	}
}

func TestCreateRestoreBackup(t *testing.T) {
	original := Archive{
		"known_hosts":   []byte("example.com ssh-ed25519 AAAA...\n"),
		"settings.json": []byte(`{"defaultPort": 22}`),
	}
	password := "test-password"

	doc, err := CreateBackup(original, password)
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	// Verify it's a valid envelope
	var env Envelope
	if err := json.Unmarshal([]byte(doc), &env); err != nil {
		t.Fatalf("Backup is not valid JSON: %v", err)
	}

	restored, err := RestoreBackup(doc, password)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	if len(restored) != len(original) {
		t.Fatalf("Expected %d files, got %d", len(original), len(restored))
	}
	for name, data := range original {
		if !bytes.Equal(restored[name], data) {
			t.Errorf("File %s doesn't match after restore", name)
		}
	}
}

func TestTamperedData(t *testing.T) {
	env, err := Encrypt([]byte("Original data"), "password")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Flip one character of the ciphertext
	tampered := []rune(env.EncryptedData)
	if tampered[10] == 'A' {
		tampered[10] = 'B'
	} else {
		tampered[10] = 'A'
	}
	env.EncryptedData = string(tampered)

	_, err = Decrypt(env, "password")
	if err == nil {
		t.Error("Expected decryption to fail with tampered data, but it succeeded")
	}
}

func TestDataDirRestoreRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	hosts := []byte("example.com ssh-ed25519 AAAA...\n")
	config := []byte(`{"defaultPort": 2222}`)
	if err := os.WriteFile(filepath.Join(srcDir, "known_hosts"), hosts, 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "settings.json"), config, 0600); err != nil {
		t.Fatal(err)
	}

	// Full cycle: collect, encrypt, decrypt, write into a fresh data dir
	password := "round-trip-password"
	archive, err := CollectDataDir(srcDir)
	if err != nil {
		t.Fatalf("CollectDataDir failed: %v", err)
	}
	doc, err := CreateBackup(archive, password)
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	restored, err := RestoreBackup(doc, password)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	destDir := filepath.Join(t.TempDir(), "data")
	if err := WriteDataDir(destDir, restored); err != nil {
		t.Fatalf("WriteDataDir failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(destDir, "known_hosts"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, hosts) {
		t.Error("known_hosts differs after round trip")
	}
	got, err = os.ReadFile(filepath.Join(destDir, "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, config) {
		t.Error("settings.json differs after round trip")
	}
}

func TestCollectWriteDataDir(t *testing.T) {
	srcDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "known_hosts"), []byte("host key\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "settings.json"), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	// Not in the backup set, must be ignored
	if err := os.WriteFile(filepath.Join(srcDir, "debug.log"), []byte("noise"), 0600); err != nil {
		t.Fatal(err)
	}

	archive, err := CollectDataDir(srcDir)
	if err != nil {
		t.Fatalf("CollectDataDir failed: %v", err)
	}
	if len(archive) != 2 {
		t.Fatalf("Expected 2 files in archive, got %d", len(archive))
	}
	if _, ok := archive["debug.log"]; ok {
		t.Error("debug.log should not be collected")
	}

	destDir := t.TempDir()
	if err := WriteDataDir(destDir, archive); err != nil {
		t.Fatalf("WriteDataDir failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(destDir, "known_hosts"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "host key\n" {
		t.Errorf("known_hosts content mismatch: %q", data)
	}
}
