package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/arnarpall/musicsearch/internal/catalog"
	"github.com/arnarpall/musicsearch/internal/version"
)

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
		"commit":  version.Commit,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSearch resolves the artist/album/track query against all catalogs
// and returns the merged, provenance-tagged record.
func (r *Router) handleSearch(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	crit := catalog.NewCriteria(q.Get("artist"), q.Get("album"), q.Get("track"))

	merged, err := r.searcher.Search(req.Context(), crit)
	if err != nil {
		if errors.Is(err, req.Context().Err()) {
			return
		}
		r.logger.Error("search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, merged)
}

// handleListSources returns the capability descriptors for all catalogs.
func (r *Router) handleListSources(w http.ResponseWriter, req *http.Request) {
	type sourceInfo struct {
		Source      catalog.Source `json:"source"`
		DisplayName string         `json:"display_name"`
		catalog.SourceCapability
	}

	caps := catalog.SourceCapabilities()
	sources := make([]sourceInfo, 0, len(caps))
	for _, source := range catalog.AllSources() {
		sources = append(sources, sourceInfo{
			Source:           source,
			DisplayName:      source.DisplayName(),
			SourceCapability: caps[source],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}
