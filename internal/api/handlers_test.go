package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/arnarpall/musicsearch/internal/catalog"
	"github.com/arnarpall/musicsearch/internal/encryption"
	"github.com/arnarpall/musicsearch/internal/settings"
)

type stubSearcher struct {
	criteria catalog.Criteria
	result   catalog.MergedRecord
	err      error
}

func (s *stubSearcher) Search(ctx context.Context, crit catalog.Criteria) (catalog.MergedRecord, error) {
	s.criteria = crit
	if s.err != nil {
		return catalog.MergedRecord{}, s.err
	}
	return s.result, nil
}

type stubTester struct {
	err    error
	called bool
	ctx    context.Context
}

func (s *stubTester) TestConnection(ctx context.Context) error {
	s.called = true
	s.ctx = ctx
	return s.err
}

func testSettings(t *testing.T) *settings.Service {
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
	enc, _, _ := encryption.New("")
	return settings.NewService(db, enc, settings.Fallback{})
}

func newTestRouter(t *testing.T, searcher Searcher, testers map[catalog.Source]ConnectionTester) (*Router, *settings.Service) {
	t.Helper()
	svc := testSettings(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	r := NewRouter(RouterDeps{
		Searcher: searcher,
		Settings: svc,
		Testers:  testers,
		Logger:   logger,
	})
	return r, svc
}

func TestHandleHealth(t *testing.T) {
	r, _ := newTestRouter(t, &stubSearcher{}, nil)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestHandleSearchTrimsAndForwardsCriteria(t *testing.T) {
	searcher := &stubSearcher{result: catalog.MergeRecords(catalog.EmptyRecord(), catalog.EmptyRecord())}
	r, _ := newTestRouter(t, searcher, nil)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/search?artist=%20Nirvana%20&track=Lithium")
	if err != nil {
		t.Fatalf("GET search: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if searcher.criteria.Artist != "Nirvana" || searcher.criteria.Track != "Lithium" || searcher.criteria.Album != "" {
		t.Errorf("forwarded criteria = %+v", searcher.criteria)
	}

	var merged catalog.MergedRecord
	if err := json.NewDecoder(resp.Body).Decode(&merged); err != nil {
		t.Fatalf("decoding merged record: %v", err)
	}
	if len(merged.Artist) == 0 || len(merged.Album) == 0 || len(merged.Track) == 0 {
		t.Error("merged record should carry the full schema")
	}
}

func TestHandleSearchError(t *testing.T) {
	r, _ := newTestRouter(t, &stubSearcher{err: errors.New("boom")}, nil)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/search?artist=Nirvana")
	if err != nil {
		t.Fatalf("GET search: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestHandleListSources(t *testing.T) {
	r, _ := newTestRouter(t, &stubSearcher{}, nil)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/sources")
	if err != nil {
		t.Fatalf("GET sources: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Sources []struct {
			Source string `json:"source"`
			Tier   string `json:"tier"`
		} `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(body.Sources))
	}
	if body.Sources[0].Source != "spotify" || body.Sources[0].Tier != "client_key" {
		t.Errorf("first source = %+v", body.Sources[0])
	}
}

func TestSetAndListCredentials(t *testing.T) {
	r, _ := newTestRouter(t, &stubSearcher{}, nil)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	payload := bytes.NewBufferString(`{"client_id":"id","client_secret":"secret"}`)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/settings/credentials/spotify", payload)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT credentials: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	listResp, err := http.Get(srv.URL + "/api/v1/settings/credentials")
	if err != nil {
		t.Fatalf("GET credentials: %v", err)
	}
	defer listResp.Body.Close()

	var body struct {
		Credentials []settings.CredentialStatus `json:"credentials"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	for _, c := range body.Credentials {
		if c.Source == catalog.SourceSpotify && !c.Configured {
			t.Error("spotify should report configured after PUT")
		}
	}
}

func TestSetCredentialsValidation(t *testing.T) {
	r, _ := newTestRouter(t, &stubSearcher{}, nil)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	tests := []struct {
		name   string
		source string
		body   string
		want   int
	}{
		{"unknown source", "itunes", `{"token":"x"}`, http.StatusBadRequest},
		{"missing secret", "spotify", `{"client_id":"id"}`, http.StatusBadRequest},
		{"missing token", "discogs", `{}`, http.StatusBadRequest},
		{"valid discogs", "discogs", `{"token":"x"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPut,
				srv.URL+"/api/v1/settings/credentials/"+tt.source,
				bytes.NewBufferString(tt.body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("PUT: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestDeleteCredentials(t *testing.T) {
	r, svc := newTestRouter(t, &stubSearcher{}, nil)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	if err := svc.SetDiscogsToken(context.Background(), "tok"); err != nil {
		t.Fatalf("seeding token: %v", err)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/settings/credentials/discogs", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE credentials: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	token, err := svc.DiscogsToken(context.Background())
	if err != nil {
		t.Fatalf("DiscogsToken: %v", err)
	}
	if token != "" {
		t.Errorf("token = %q, want cleared", token)
	}
}

func TestTestCredentialsStoredRecordsStatus(t *testing.T) {
	tester := &stubTester{}
	r, svc := newTestRouter(t, &stubSearcher{}, map[catalog.Source]ConnectionTester{
		catalog.SourceDiscogs: tester,
	})
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	if err := svc.SetDiscogsToken(context.Background(), "tok"); err != nil {
		t.Fatalf("seeding token: %v", err)
	}

	resp, err := http.Post(srv.URL+"/api/v1/settings/credentials/discogs/test", "application/json", nil)
	if err != nil {
		t.Fatalf("POST test: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
	if !tester.called {
		t.Fatal("tester not invoked")
	}

	status, err := svc.GetKeyStatus(context.Background(), catalog.SourceDiscogs)
	if err != nil {
		t.Fatalf("GetKeyStatus: %v", err)
	}
	if status != "ok" {
		t.Errorf("persisted status = %q, want ok", status)
	}
}

func TestTestCredentialsCandidateUsesOverride(t *testing.T) {
	tester := &stubTester{}
	r, svc := newTestRouter(t, &stubSearcher{}, map[catalog.Source]ConnectionTester{
		catalog.SourceDiscogs: tester,
	})
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	payload := bytes.NewBufferString(`{"token":"candidate-token"}`)
	resp, err := http.Post(srv.URL+"/api/v1/settings/credentials/discogs/test", "application/json", payload)
	if err != nil {
		t.Fatalf("POST test: %v", err)
	}
	resp.Body.Close()

	if !tester.called {
		t.Fatal("tester not invoked")
	}
	token, err := svc.DiscogsToken(tester.ctx)
	if err != nil {
		t.Fatalf("DiscogsToken: %v", err)
	}
	if token != "candidate-token" {
		t.Errorf("tester saw token %q, want the candidate override", token)
	}

	// Candidate tests must not persist anything.
	stored, err := svc.DiscogsToken(context.Background())
	if err != nil {
		t.Fatalf("DiscogsToken: %v", err)
	}
	if stored != "" {
		t.Errorf("stored token = %q, want empty", stored)
	}
}

func TestExportImportEndpoints(t *testing.T) {
	r, svc := newTestRouter(t, &stubSearcher{}, nil)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	if err := svc.SetDiscogsToken(context.Background(), "tok"); err != nil {
		t.Fatalf("seeding token: %v", err)
	}

	resp, err := http.Post(srv.URL+"/api/v1/settings/export", "application/json",
		bytes.NewBufferString(`{"passphrase":"hunter2"}`))
	if err != nil {
		t.Fatalf("POST export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d, want 200", resp.StatusCode)
	}

	var envelope settings.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}

	// Round-trip through a second router backed by a fresh store.
	r2, svc2 := newTestRouter(t, &stubSearcher{}, nil)
	srv2 := httptest.NewServer(r2.Handler())
	defer srv2.Close()

	importBody, _ := json.Marshal(map[string]any{
		"passphrase": "hunter2",
		"envelope":   envelope,
	})
	importResp, err := http.Post(srv2.URL+"/api/v1/settings/import", "application/json", bytes.NewBuffer(importBody))
	if err != nil {
		t.Fatalf("POST import: %v", err)
	}
	importResp.Body.Close()
	if importResp.StatusCode != http.StatusOK {
		t.Fatalf("import status = %d, want 200", importResp.StatusCode)
	}

	token, err := svc2.DiscogsToken(context.Background())
	if err != nil {
		t.Fatalf("DiscogsToken: %v", err)
	}
	if token != "tok" {
		t.Errorf("imported token = %q, want tok", token)
	}
}
