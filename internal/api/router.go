package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/arnarpall/musicsearch/internal/api/middleware"
	"github.com/arnarpall/musicsearch/internal/catalog"
	"github.com/arnarpall/musicsearch/internal/settings"
)

// Searcher resolves search criteria against all catalogs and merges the
// results. Satisfied by *catalog.Orchestrator.
type Searcher interface {
	Search(ctx context.Context, crit catalog.Criteria) (catalog.MergedRecord, error)
}

// ConnectionTester verifies catalog credentials against the live service.
type ConnectionTester interface {
	TestConnection(ctx context.Context) error
}

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	Searcher Searcher
	Settings *settings.Service
	Testers  map[catalog.Source]ConnectionTester
	Logger   *slog.Logger
	BasePath string
}

// Router sets up all HTTP routes for the application.
type Router struct {
	searcher Searcher
	settings *settings.Service
	testers  map[catalog.Source]ConnectionTester
	logger   *slog.Logger
	basePath string
}

// NewRouter creates a new Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		searcher: deps.Searcher,
		settings: deps.Settings,
		testers:  deps.Testers,
		logger:   deps.Logger,
		basePath: deps.BasePath,
	}
}

// Handler returns the fully configured HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	bp := r.basePath

	mux.HandleFunc("GET "+bp+"/api/v1/health", r.handleHealth)
	mux.HandleFunc("GET "+bp+"/api/v1/search", r.handleSearch)
	mux.HandleFunc("GET "+bp+"/api/v1/sources", r.handleListSources)

	mux.HandleFunc("GET "+bp+"/api/v1/settings/credentials", r.handleListCredentials)
	mux.HandleFunc("PUT "+bp+"/api/v1/settings/credentials/{source}", r.handleSetCredentials)
	mux.HandleFunc("DELETE "+bp+"/api/v1/settings/credentials/{source}", r.handleDeleteCredentials)
	mux.HandleFunc("POST "+bp+"/api/v1/settings/credentials/{source}/test", r.handleTestCredentials)

	mux.HandleFunc("POST "+bp+"/api/v1/settings/export", r.handleExportSettings)
	mux.HandleFunc("POST "+bp+"/api/v1/settings/import", r.handleImportSettings)

	return middleware.WithRequestID()(middleware.Logging(r.logger)(mux))
}
