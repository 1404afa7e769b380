package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arnarpall/musicsearch/internal/settings"
)

const maxImportSize = 1 << 20 // 1 MB

// handleExportSettings writes a passphrase-encrypted export of the stored
// catalog credentials as a downloadable JSON file.
func (r *Router) handleExportSettings(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Passphrase string `json:"passphrase"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Passphrase == "" {
		writeError(w, http.StatusBadRequest, "passphrase is required")
		return
	}

	envelope, err := r.settings.Export(req.Context(), body.Passphrase)
	if err != nil {
		r.logger.Error("settings export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := fmt.Sprintf("musicsearch-settings-%s.json", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	json.NewEncoder(w).Encode(envelope) //nolint:errcheck
}

// handleImportSettings decrypts an uploaded export and stores the
// credentials it contains.
func (r *Router) handleImportSettings(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxImportSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body")
		return
	}
	if len(body) > maxImportSize {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds 1MB limit")
		return
	}

	var payload struct {
		Passphrase string            `json:"passphrase"`
		Envelope   settings.Envelope `json:"envelope"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if payload.Passphrase == "" {
		writeError(w, http.StatusBadRequest, "passphrase is required")
		return
	}

	result, err := r.settings.Import(req.Context(), &payload.Envelope, payload.Passphrase)
	if err != nil {
		r.logger.Error("settings import failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
