package settings

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/arnarpall/musicsearch/internal/catalog"
	"github.com/arnarpall/musicsearch/internal/encryption"
)

func setupService(t *testing.T, fallback Fallback) *Service {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS settings (key TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at TEXT NOT NULL DEFAULT (datetime('now')))`)
	if err != nil {
		t.Fatalf("creating settings table: %v", err)
	}
	enc, _, err := encryption.New("")
	if err != nil {
		t.Fatalf("creating encryptor: %v", err)
	}
	return NewService(db, enc, fallback)
}

func TestSpotifyCredentialsRoundTrip(t *testing.T) {
	svc := setupService(t, Fallback{})
	ctx := context.Background()

	id, secret, err := svc.SpotifyCredentials(ctx)
	if err != nil {
		t.Fatalf("SpotifyCredentials: %v", err)
	}
	if id != "" || secret != "" {
		t.Errorf("expected empty credentials, got %q/%q", id, secret)
	}

	if err := svc.SetSpotifyCredentials(ctx, "my-id", "my-secret"); err != nil {
		t.Fatalf("SetSpotifyCredentials: %v", err)
	}
	id, secret, err = svc.SpotifyCredentials(ctx)
	if err != nil {
		t.Fatalf("SpotifyCredentials: %v", err)
	}
	if id != "my-id" || secret != "my-secret" {
		t.Errorf("got %q/%q, want my-id/my-secret", id, secret)
	}
}

func TestSetSpotifyCredentialsReplacesPairAndClearsStatus(t *testing.T) {
	svc := setupService(t, Fallback{})
	ctx := context.Background()

	if err := svc.SetSpotifyCredentials(ctx, "old-id", "old-secret"); err != nil {
		t.Fatalf("SetSpotifyCredentials: %v", err)
	}
	if err := svc.SetKeyStatus(ctx, catalog.SourceSpotify, "invalid"); err != nil {
		t.Fatalf("SetKeyStatus: %v", err)
	}

	if err := svc.SetSpotifyCredentials(ctx, "new-id", "new-secret"); err != nil {
		t.Fatalf("SetSpotifyCredentials: %v", err)
	}

	id, secret, err := svc.SpotifyCredentials(ctx)
	if err != nil {
		t.Fatalf("SpotifyCredentials: %v", err)
	}
	if id != "new-id" || secret != "new-secret" {
		t.Errorf("got %q/%q, want new-id/new-secret", id, secret)
	}

	status, err := svc.GetKeyStatus(ctx, catalog.SourceSpotify)
	if err != nil {
		t.Fatalf("GetKeyStatus: %v", err)
	}
	if status != "" {
		t.Errorf("status = %q, want cleared after replacing the pair", status)
	}
}

func TestCredentialsStoredEncrypted(t *testing.T) {
	svc := setupService(t, Fallback{})
	ctx := context.Background()

	if err := svc.SetDiscogsToken(ctx, "plain-token"); err != nil {
		t.Fatalf("SetDiscogsToken: %v", err)
	}

	var stored string
	err := svc.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", keyDiscogsToken).Scan(&stored)
	if err != nil {
		t.Fatalf("reading raw value: %v", err)
	}
	if stored == "plain-token" {
		t.Error("token stored in plaintext")
	}

	token, err := svc.DiscogsToken(ctx)
	if err != nil {
		t.Fatalf("DiscogsToken: %v", err)
	}
	if token != "plain-token" {
		t.Errorf("decrypted token = %q, want plain-token", token)
	}
}

func TestFallbackUsedWhenUnset(t *testing.T) {
	svc := setupService(t, Fallback{DiscogsToken: "env-token"})
	ctx := context.Background()

	token, err := svc.DiscogsToken(ctx)
	if err != nil {
		t.Fatalf("DiscogsToken: %v", err)
	}
	if token != "env-token" {
		t.Errorf("token = %q, want fallback env-token", token)
	}

	// A stored value takes precedence over the fallback.
	if err := svc.SetDiscogsToken(ctx, "db-token"); err != nil {
		t.Fatalf("SetDiscogsToken: %v", err)
	}
	token, err = svc.DiscogsToken(ctx)
	if err != nil {
		t.Fatalf("DiscogsToken: %v", err)
	}
	if token != "db-token" {
		t.Errorf("token = %q, want stored db-token", token)
	}
}

func TestOverrideBeatsStoredValue(t *testing.T) {
	svc := setupService(t, Fallback{})
	ctx := context.Background()

	if err := svc.SetDiscogsToken(ctx, "stored"); err != nil {
		t.Fatalf("SetDiscogsToken: %v", err)
	}

	overridden := WithOverride(ctx, OverrideDiscogsToken, "candidate")
	token, err := svc.DiscogsToken(overridden)
	if err != nil {
		t.Fatalf("DiscogsToken: %v", err)
	}
	if token != "candidate" {
		t.Errorf("token = %q, want override candidate", token)
	}

	// The plain context still sees the stored value.
	token, err = svc.DiscogsToken(ctx)
	if err != nil {
		t.Fatalf("DiscogsToken: %v", err)
	}
	if token != "stored" {
		t.Errorf("token = %q, want stored", token)
	}
}

func TestDeleteCredentials(t *testing.T) {
	svc := setupService(t, Fallback{})
	ctx := context.Background()

	if err := svc.SetSpotifyCredentials(ctx, "id", "secret"); err != nil {
		t.Fatalf("SetSpotifyCredentials: %v", err)
	}
	if err := svc.DeleteCredentials(ctx, catalog.SourceSpotify); err != nil {
		t.Fatalf("DeleteCredentials: %v", err)
	}

	id, secret, err := svc.SpotifyCredentials(ctx)
	if err != nil {
		t.Fatalf("SpotifyCredentials: %v", err)
	}
	if id != "" || secret != "" {
		t.Errorf("credentials not cleared, got %q/%q", id, secret)
	}
}

func TestKeyStatusLifecycle(t *testing.T) {
	svc := setupService(t, Fallback{})
	ctx := context.Background()

	status, err := svc.GetKeyStatus(ctx, catalog.SourceDiscogs)
	if err != nil {
		t.Fatalf("GetKeyStatus: %v", err)
	}
	if status != "" {
		t.Errorf("initial status = %q, want empty", status)
	}

	if err := svc.SetKeyStatus(ctx, catalog.SourceDiscogs, "ok"); err != nil {
		t.Fatalf("SetKeyStatus: %v", err)
	}
	status, err = svc.GetKeyStatus(ctx, catalog.SourceDiscogs)
	if err != nil {
		t.Fatalf("GetKeyStatus: %v", err)
	}
	if status != "ok" {
		t.Errorf("status = %q, want ok", status)
	}

	if err := svc.SetKeyStatus(ctx, catalog.SourceDiscogs, ""); err != nil {
		t.Fatalf("clearing status: %v", err)
	}
	status, err = svc.GetKeyStatus(ctx, catalog.SourceDiscogs)
	if err != nil {
		t.Fatalf("GetKeyStatus: %v", err)
	}
	if status != "" {
		t.Errorf("status = %q, want cleared", status)
	}
}

func TestListCredentialStatuses(t *testing.T) {
	svc := setupService(t, Fallback{})
	ctx := context.Background()

	if err := svc.SetSpotifyCredentials(ctx, "id", "secret"); err != nil {
		t.Fatalf("SetSpotifyCredentials: %v", err)
	}

	statuses, err := svc.ListCredentialStatuses(ctx)
	if err != nil {
		t.Fatalf("ListCredentialStatuses: %v", err)
	}
	if len(statuses) != len(catalog.AllSources()) {
		t.Fatalf("got %d statuses, want %d", len(statuses), len(catalog.AllSources()))
	}

	byauth := make(map[catalog.Source]CredentialStatus, len(statuses))
	for _, s := range statuses {
		byauth[s.Source] = s
	}
	if s := byauth[catalog.SourceSpotify]; !s.Configured || s.Status != "untested" {
		t.Errorf("spotify status = %+v, want configured and untested", s)
	}
	if s := byauth[catalog.SourceDiscogs]; s.Configured || s.Status != "unconfigured" {
		t.Errorf("discogs status = %+v, want unconfigured", s)
	}
}
