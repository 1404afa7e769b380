package settings

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/arnarpall/musicsearch/internal/version"
)

// pbkdf2Iterations is the OWASP-recommended iteration count for PBKDF2-SHA256.
const pbkdf2Iterations = 600_000

// Envelope is the outer JSON wrapper for an exported credentials file.
type Envelope struct {
	Version    string `json:"version"`
	AppVersion string `json:"app_version"`
	CreatedAt  string `json:"created_at"`
	Salt       string `json:"salt"` // base64-encoded PBKDF2 salt
	Data       string `json:"data"` // base64-encoded nonce+ciphertext
}

// payload is the decrypted inner content of an export.
type payload struct {
	Credentials map[string]string `json:"credentials"`
}

// ImportResult summarizes what was imported.
type ImportResult struct {
	Credentials int `json:"credentials"`
}

// Export collects the stored catalog credentials, encrypts them with the
// given passphrase, and returns an Envelope. The passphrase is used with
// PBKDF2 to derive an AES-256-GCM key, making exports portable across
// instances with different at-rest encryption keys.
func (s *Service) Export(ctx context.Context, passphrase string) (*Envelope, error) {
	p := payload{Credentials: make(map[string]string)}

	clientID, clientSecret, err := s.SpotifyCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading spotify credentials: %w", err)
	}
	if clientID != "" {
		p.Credentials[keySpotifyClientID] = clientID
	}
	if clientSecret != "" {
		p.Credentials[keySpotifyClientSecret] = clientSecret
	}

	token, err := s.DiscogsToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading discogs token: %w", err)
	}
	if token != "" {
		p.Credentials[keyDiscogsToken] = token
	}

	payloadJSON, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	data, salt, err := encryptWithPassphrase(payloadJSON, passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypting payload: %w", err)
	}

	return &Envelope{
		Version:    "1.0",
		AppVersion: version.Version,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Salt:       salt,
		Data:       data,
	}, nil
}

// Import decrypts an Envelope with the given passphrase and stores the
// credentials it contains.
func (s *Service) Import(ctx context.Context, env *Envelope, passphrase string) (*ImportResult, error) {
	if env.Data == "" {
		return nil, fmt.Errorf("empty export data")
	}

	plaintext, err := decryptWithPassphrase(env.Data, env.Salt, passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypting export data (wrong passphrase?): %w", err)
	}

	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return nil, fmt.Errorf("parsing export payload: %w", err)
	}

	result := &ImportResult{}

	clientID := p.Credentials[keySpotifyClientID]
	clientSecret := p.Credentials[keySpotifyClientSecret]
	if clientID != "" && clientSecret != "" {
		if err := s.SetSpotifyCredentials(ctx, clientID, clientSecret); err != nil {
			return nil, fmt.Errorf("importing spotify credentials: %w", err)
		}
		result.Credentials += 2
	}

	if token := p.Credentials[keyDiscogsToken]; token != "" {
		if err := s.SetDiscogsToken(ctx, token); err != nil {
			return nil, fmt.Errorf("importing discogs token: %w", err)
		}
		result.Credentials++
	}

	return result, nil
}

// deriveKey uses PBKDF2-SHA256 to derive a 32-byte AES-256 key from a
// passphrase and salt.
func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, 32, sha256.New)
}

// encryptWithPassphrase encrypts plaintext using a passphrase-derived
// AES-256-GCM key. Returns base64-encoded ciphertext and salt.
func encryptWithPassphrase(plaintext []byte, passphrase string) (data, salt string, err error) {
	saltBytes := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, saltBytes); err != nil {
		return "", "", fmt.Errorf("generating salt: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase, saltBytes))
	if err != nil {
		return "", "", fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", "", fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(saltBytes),
		nil
}

// decryptWithPassphrase decrypts base64-encoded ciphertext using a
// passphrase-derived AES-256-GCM key with the given base64-encoded salt.
func decryptWithPassphrase(data, salt, passphrase string) ([]byte, error) {
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("decoding salt: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase, saltBytes))
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting (wrong passphrase?): %w", err)
	}

	return plaintext, nil
}
