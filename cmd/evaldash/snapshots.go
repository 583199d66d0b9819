package main

import (
	"context"
	"log/slog"

	"github.com/spboyer/evaldash/internal/cache"
	"github.com/spboyer/evaldash/internal/metrics"
	"github.com/spboyer/evaldash/internal/poller"
	"github.com/spboyer/evaldash/internal/projectconfig"
)

// snapshots persists the latest applied run of one backend so the next
// watch or serve starts from it.
type snapshots struct {
	cache   *cache.Cache
	key     string
	baseURL string
}

func openSnapshots(cfg *projectconfig.ProjectConfig, baseURL string) *snapshots {
	return &snapshots{
		cache:   cache.New(cfg.CacheDir()),
		key:     cache.Key(baseURL, cfg.IncludeCurves()),
		baseURL: baseURL,
	}
}

// seed sets the poller's initial data from the cache, if present.
func (s *snapshots) seed(opts *poller.Options[*metrics.Evaluation]) {
	entry, ok := s.cache.Get(s.key)
	if !ok {
		return
	}
	opts.Initial = entry.Evaluation
	opts.HasInitial = true
	slog.Debug("seeded dashboard from snapshot", "run_id", entry.Evaluation.RunID, "stored_at", entry.StoredAt)
}

func (s *snapshots) store(ev *metrics.Evaluation) {
	if err := s.cache.Put(s.key, s.baseURL, ev); err != nil {
		slog.Warn("failed to store snapshot", "error", err)
	}
}

// persist stores every successfully applied result of p until ctx is
// cancelled or p stops.
func (s *snapshots) persist(ctx context.Context, p *poller.Poller[*metrics.Evaluation]) {
	if s.cache.Dir() == "" {
		return
	}
	states, unsubscribe := p.Subscribe()
	defer unsubscribe()

	var stored uint64
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			if st.Loading || st.Err != nil || !st.HasData || st.Seq == stored {
				continue
			}
			stored = st.Seq
			s.store(st.Data)
		}
	}
}
