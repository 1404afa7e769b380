package catalog

import (
	"context"
	"log/slog"
	"sync"
)

// Resolver turns free-text criteria into a normalized record for one source.
// Implementations absorb vendor failures into empty entities; the only errors
// they surface are context cancellation and internal invariant violations.
type Resolver interface {
	Source() Source
	Resolve(ctx context.Context, crit Criteria) (Record, error)
}

// Orchestrator is the public entry point of the search pipeline. It runs both
// source resolvers independently and merges their records field by field.
type Orchestrator struct {
	spotify Resolver
	discogs Resolver
	logger  *slog.Logger
}

// NewOrchestrator creates an Orchestrator over the two source resolvers.
func NewOrchestrator(spotify, discogs Resolver, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		spotify: spotify,
		discogs: discogs,
		logger:  logger.With(slog.String("component", "orchestrator")),
	}
}

// Search resolves the criteria against both catalogs and returns the
// provenance-tagged merge. A resolver failure degrades to an all-empty record
// for that source; Search itself fails only on context cancellation.
func (o *Orchestrator) Search(ctx context.Context, crit Criteria) (MergedRecord, error) {
	if crit.Empty() {
		return MergeRecords(EmptyRecord(), EmptyRecord()), nil
	}

	// The two resolvers share no state; each runs its own strictly
	// sequential chain of dependent vendor calls.
	var wg sync.WaitGroup
	records := make(map[Source]Record, 2)
	var mu sync.Mutex

	for _, r := range []Resolver{o.spotify, o.discogs} {
		wg.Add(1)
		go func(r Resolver) {
			defer wg.Done()
			rec := o.resolveOne(ctx, r, crit)
			mu.Lock()
			records[r.Source()] = rec
			mu.Unlock()
		}(r)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return MergedRecord{}, err
	}

	return MergeRecords(records[SourceSpotify], records[SourceDiscogs]), nil
}

func (o *Orchestrator) resolveOne(ctx context.Context, r Resolver, crit Criteria) Record {
	rec, err := r.Resolve(ctx, crit)
	if err != nil {
		o.logger.Warn("resolver failed",
			slog.String("source", string(r.Source())),
			slog.String("error", err.Error()))
		return EmptyRecord()
	}
	return rec
}
