package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arnarpall/musicsearch/internal/catalog"
	"github.com/arnarpall/musicsearch/internal/settings"
)

// handleListCredentials returns the credential configuration state for all
// catalogs. Stored secrets are never included in the response.
func (r *Router) handleListCredentials(w http.ResponseWriter, req *http.Request) {
	statuses, err := r.settings.ListCredentialStatuses(req.Context())
	if err != nil {
		r.logger.Error("listing credential statuses", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"credentials": statuses})
}

// credentialBody carries candidate credentials for a single source. Spotify
// uses the client_id/client_secret pair, Discogs the personal token.
type credentialBody struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Token        string `json:"token"`
}

// handleSetCredentials stores encrypted credentials for a source.
func (r *Router) handleSetCredentials(w http.ResponseWriter, req *http.Request) {
	source, ok := catalog.ParseSource(req.PathValue("source"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown source")
		return
	}

	var body credentialBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch source {
	case catalog.SourceSpotify:
		if body.ClientID == "" || body.ClientSecret == "" {
			writeError(w, http.StatusBadRequest, "client_id and client_secret are required")
			return
		}
		if err := r.settings.SetSpotifyCredentials(req.Context(), body.ClientID, body.ClientSecret); err != nil {
			r.logger.Error("saving spotify credentials", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save credentials")
			return
		}
	case catalog.SourceDiscogs:
		if body.Token == "" {
			writeError(w, http.StatusBadRequest, "token is required")
			return
		}
		if err := r.settings.SetDiscogsToken(req.Context(), body.Token); err != nil {
			r.logger.Error("saving discogs token", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save credentials")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// handleDeleteCredentials removes the stored credentials for a source.
func (r *Router) handleDeleteCredentials(w http.ResponseWriter, req *http.Request) {
	source, ok := catalog.ParseSource(req.PathValue("source"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown source")
		return
	}

	if err := r.settings.DeleteCredentials(req.Context(), source); err != nil {
		r.logger.Error("deleting credentials", "source", source, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleTestCredentials verifies credentials against the live catalog. When
// the request carries a body, the supplied candidate credentials are tested
// without being persisted; otherwise the stored ones are tested and the
// result is recorded.
func (r *Router) handleTestCredentials(w http.ResponseWriter, req *http.Request) {
	source, ok := catalog.ParseSource(req.PathValue("source"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown source")
		return
	}

	tester, ok := r.testers[source]
	if !ok {
		writeError(w, http.StatusBadRequest, "source does not support connection testing")
		return
	}

	ctx := req.Context()
	candidate := false
	if req.ContentLength > 0 {
		var body credentialBody
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		switch source {
		case catalog.SourceSpotify:
			if body.ClientID != "" && body.ClientSecret != "" {
				ctx = settings.WithOverride(ctx, settings.OverrideSpotifyClientID, body.ClientID)
				ctx = settings.WithOverride(ctx, settings.OverrideSpotifyClientSecret, body.ClientSecret)
				candidate = true
			}
		case catalog.SourceDiscogs:
			if body.Token != "" {
				ctx = settings.WithOverride(ctx, settings.OverrideDiscogsToken, body.Token)
				candidate = true
			}
		}
	}

	if err := tester.TestConnection(ctx); err != nil {
		var authErr *catalog.ErrAuthRequired
		if !candidate && !errors.As(err, &authErr) {
			if statusErr := r.settings.SetKeyStatus(ctx, source, "invalid"); statusErr != nil {
				r.logger.Error("recording key status", "source", source, "error", statusErr)
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "error": err.Error()})
		return
	}

	if !candidate {
		if err := r.settings.SetKeyStatus(ctx, source, "ok"); err != nil {
			r.logger.Error("recording key status", "source", source, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
