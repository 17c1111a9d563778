package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/argon2"
)

// Envelope is the encrypted backup file format
type Envelope struct {
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
	Salt          string `json:"salt"`           // base64-encoded
	Nonce         string `json:"nonce"`          // base64-encoded
	EncryptedData string `json:"encrypted_data"` // base64-encoded
}

// Archive is the plaintext payload: the data directory's files keyed by
// base name (known_hosts, settings.json).
type Archive map[string][]byte

// Argon2id parameters (memory-hard)
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32 // 256-bit key
	saltLen       = 32
	nonceLen      = 12 // GCM standard nonce
)

// DeriveKey derives a 256-bit key from password using Argon2id
func DeriveKey(password string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(password),
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)
}

// Encrypt seals data with AES-256-GCM under a key derived from password
func Encrypt(data []byte, password string) (*Envelope, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	block, err := aes.NewCipher(DeriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, data, nil)

	return &Envelope{
		Version:       "1.0",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Salt:          base64.StdEncoding.EncodeToString(salt),
		Nonce:         base64.StdEncoding.EncodeToString(nonce),
		EncryptedData: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// Decrypt opens an envelope using password
func Decrypt(env *Envelope, password string) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt: %w", err)
	}

	block, err := aes.NewCipher(DeriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("invalid nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("invalid encrypted data: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.New("decryption failed: wrong password or corrupted data")
	}

	return plaintext, nil
}

// backupFiles are the data-dir files worth carrying off-host.
var backupFiles = []string{"known_hosts", "settings.json"}

// CollectDataDir gathers the data directory's files into an archive.
// Missing files are skipped.
func CollectDataDir(dataDir string) (Archive, error) {
	archive := Archive{}
	for _, name := range backupFiles {
		data, err := os.ReadFile(filepath.Join(dataDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		archive[name] = data
	}
	return archive, nil
}

// WriteDataDir writes an archive's files back into the data directory.
func WriteDataDir(dataDir string, archive Archive) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	for name, data := range archive {
		// Only restore names we would have collected
		if filepath.Base(name) != name {
			continue
		}
		if err := os.WriteFile(filepath.Join(dataDir, name), data, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

// CreateBackup encrypts an archive into a backup document
func CreateBackup(archive Archive, password string) (string, error) {
	jsonData, err := json.Marshal(archive)
	if err != nil {
		return "", fmt.Errorf("failed to marshal archive: %w", err)
	}

	env, err := Encrypt(jsonData, password)
	if err != nil {
		return "", fmt.Errorf("encryption failed: %w", err)
	}

	doc, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to create backup JSON: %w", err)
	}

	return string(doc), nil
}

// RestoreBackup decrypts a backup document back into an archive
func RestoreBackup(doc string, password string) (Archive, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(doc), &env); err != nil {
		return nil, fmt.Errorf("invalid backup format: %w", err)
	}

	plaintext, err := Decrypt(&env, password)
	if err != nil {
		return nil, err
	}

	var archive Archive
	if err := json.Unmarshal(plaintext, &archive); err != nil {
		return nil, fmt.Errorf("failed to parse backup data: %w", err)
	}

	return archive, nil
}
