// Package settings manages catalog credentials in the settings key-value
// table, encrypted at rest. Values from the config file act as a read-only
// fallback so deployments can ship credentials via environment instead.
package settings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arnarpall/musicsearch/internal/catalog"
	"github.com/arnarpall/musicsearch/internal/encryption"
)

// Setting table keys for catalog credentials.
const (
	keySpotifyClientID     = "catalog.spotify.client_id"
	keySpotifyClientSecret = "catalog.spotify.client_secret"
	keyDiscogsToken        = "catalog.discogs.token"
)

// Fallback holds credentials sourced from config/environment, used when the
// settings table has no stored value.
type Fallback struct {
	SpotifyClientID     string
	SpotifyClientSecret string
	DiscogsToken        string
}

// Service manages catalog credentials using the settings key-value table.
type Service struct {
	db        *sql.DB
	encryptor *encryption.Encryptor
	fallback  Fallback
}

// NewService creates a Service.
func NewService(db *sql.DB, encryptor *encryption.Encryptor, fallback Fallback) *Service {
	return &Service{db: db, encryptor: encryptor, fallback: fallback}
}

// ctxKeyOverride is the context key for per-request credential overrides.
// This lets handlers inject an unsaved credential so a connection test runs
// against it without persisting first.
type ctxKeyOverride struct{}

// WithOverride returns a child context that overrides the stored value for
// one settings key.
func WithOverride(ctx context.Context, key, value string) context.Context {
	parent, _ := ctx.Value(ctxKeyOverride{}).(map[string]string)

	// Always copy so a map stored in a parent context is never mutated.
	overrides := make(map[string]string, len(parent)+1)
	for k, v := range parent {
		overrides[k] = v
	}
	overrides[key] = value
	return context.WithValue(ctx, ctxKeyOverride{}, overrides)
}

// Override keys accepted by WithOverride.
const (
	OverrideSpotifyClientID     = keySpotifyClientID
	OverrideSpotifyClientSecret = keySpotifyClientSecret
	OverrideDiscogsToken        = keyDiscogsToken
)

// get retrieves and decrypts one settings value, consulting context overrides
// first and the config fallback last. Returns empty string if unset everywhere.
func (s *Service) get(ctx context.Context, key, fallback string) (string, error) {
	if overrides, ok := ctx.Value(ctxKeyOverride{}).(map[string]string); ok {
		if v, found := overrides[key]; found {
			return v, nil
		}
	}

	var encrypted string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&encrypted)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	plaintext, err := s.encryptor.Decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypting setting %s: %w", key, err)
	}
	return plaintext, nil
}

// execer abstracts *sql.DB and *sql.Tx for writes.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// set encrypts and upserts one settings value.
func (s *Service) set(ctx context.Context, ex execer, key, value string) error {
	encrypted, err := s.encryptor.Encrypt(value)
	if err != nil {
		return fmt.Errorf("encrypting setting %s: %w", key, err)
	}
	_, err = ex.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = datetime('now')",
		key, encrypted, encrypted,
	)
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}

// SpotifyCredentials returns the client-credentials pair for the token-based
// catalog. Empty strings mean unconfigured.
func (s *Service) SpotifyCredentials(ctx context.Context) (clientID, clientSecret string, err error) {
	clientID, err = s.get(ctx, keySpotifyClientID, s.fallback.SpotifyClientID)
	if err != nil {
		return "", "", err
	}
	clientSecret, err = s.get(ctx, keySpotifyClientSecret, s.fallback.SpotifyClientSecret)
	if err != nil {
		return "", "", err
	}
	return clientID, clientSecret, nil
}

// SetSpotifyCredentials stores the client-credentials pair and clears the
// stale test status in a single transaction, so a failure never leaves a
// half-written pair behind.
func (s *Service) SetSpotifyCredentials(ctx context.Context, clientID, clientSecret string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction for spotify credentials: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is a no-op after commit
	if err := s.set(ctx, tx, keySpotifyClientID, clientID); err != nil {
		return err
	}
	if err := s.set(ctx, tx, keySpotifyClientSecret, clientSecret); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", keyStatusSettingKey(catalog.SourceSpotify)); err != nil {
		return fmt.Errorf("clearing key status for spotify: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing spotify credentials: %w", err)
	}
	return nil
}

// DiscogsToken returns the personal access token for the discography catalog.
// Empty string means unconfigured.
func (s *Service) DiscogsToken(ctx context.Context) (string, error) {
	return s.get(ctx, keyDiscogsToken, s.fallback.DiscogsToken)
}

// SetDiscogsToken stores the personal access token and clears the stale test status.
func (s *Service) SetDiscogsToken(ctx context.Context, token string) error {
	if err := s.set(ctx, s.db, keyDiscogsToken, token); err != nil {
		return err
	}
	return s.SetKeyStatus(ctx, catalog.SourceDiscogs, "")
}

// DeleteCredentials removes the stored credentials and test status for a source.
func (s *Service) DeleteCredentials(ctx context.Context, source catalog.Source) error {
	keys := []string{keyStatusSettingKey(source)}
	switch source {
	case catalog.SourceSpotify:
		keys = append(keys, keySpotifyClientID, keySpotifyClientSecret)
	case catalog.SourceDiscogs:
		keys = append(keys, keyDiscogsToken)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction for %s: %w", source, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is a no-op after commit
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
			return fmt.Errorf("deleting setting %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete for %s: %w", source, err)
	}
	return nil
}

// keyStatusSettingKey returns the settings table key for a source's credential
// test status.
func keyStatusSettingKey(source catalog.Source) string {
	return fmt.Sprintf("catalog.%s.key_status", source)
}

// SetKeyStatus persists the connection test result ("ok", "invalid") for a
// source. An empty string deletes the status row, reverting to "untested".
func (s *Service) SetKeyStatus(ctx context.Context, source catalog.Source, status string) error {
	key := keyStatusSettingKey(source)
	if status == "" {
		_, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key)
		if err != nil {
			return fmt.Errorf("clearing key status for %s: %w", source, err)
		}
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = datetime('now')",
		key, status, status,
	)
	if err != nil {
		return fmt.Errorf("storing key status for %s: %w", source, err)
	}
	return nil
}

// GetKeyStatus returns the persisted test status for a source's credentials.
// Returns empty string if no status is stored.
func (s *Service) GetKeyStatus(ctx context.Context, source catalog.Source) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", keyStatusSettingKey(source)).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading key status for %s: %w", source, err)
	}
	return value, nil
}

// CredentialStatus describes the credential configuration state for a source.
type CredentialStatus struct {
	Source      catalog.Source         `json:"source"`
	DisplayName string                 `json:"display_name"`
	Configured  bool                   `json:"configured"`
	Status      string                 `json:"status"` // "ok", "invalid", "untested", "unconfigured"
	AccessTier  catalog.AccessTier     `json:"access_tier"`
	HelpURL     string                 `json:"help_url,omitempty"`
	RateLimit   *catalog.RateLimitInfo `json:"rate_limit,omitempty"`
}

// ListCredentialStatuses returns the credential state for all known sources.
func (s *Service) ListCredentialStatuses(ctx context.Context) ([]CredentialStatus, error) {
	caps := catalog.SourceCapabilities()
	var statuses []CredentialStatus
	for _, source := range catalog.AllSources() {
		configured, err := s.configured(ctx, source)
		if err != nil {
			return nil, err
		}
		status := "unconfigured"
		if configured {
			status = "untested"
			persisted, err := s.GetKeyStatus(ctx, source)
			if err != nil {
				return nil, err
			}
			if persisted != "" {
				status = persisted
			}
		}
		cap := caps[source]
		statuses = append(statuses, CredentialStatus{
			Source:      source,
			DisplayName: source.DisplayName(),
			Configured:  configured,
			Status:      status,
			AccessTier:  cap.Tier,
			HelpURL:     cap.HelpURL,
			RateLimit:   cap.RateLimit,
		})
	}
	return statuses, nil
}

func (s *Service) configured(ctx context.Context, source catalog.Source) (bool, error) {
	switch source {
	case catalog.SourceSpotify:
		id, secret, err := s.SpotifyCredentials(ctx)
		if err != nil {
			return false, err
		}
		return id != "" && secret != "", nil
	case catalog.SourceDiscogs:
		token, err := s.DiscogsToken(ctx)
		if err != nil {
			return false, err
		}
		return token != "", nil
	default:
		return false, nil
	}
}
