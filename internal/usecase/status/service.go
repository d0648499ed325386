package status

import (
	"context"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type JobCounter interface {
	Count(ctx context.Context) (int64, error)
}

type ClientCounter interface {
	ClientCount() int
}

type Report struct {
	StoreHealthy    bool      `json:"store_healthy"`
	CacheHealthy    bool      `json:"cache_healthy"`
	Jobs            int64     `json:"jobs"`
	RealtimeClients int       `json:"realtime_clients"`
	ServerTime      time.Time `json:"server_time"`
}

// Service checks the server's dependencies. Only the store is required;
// the cache and realtime hub are reported but never fail the check.
type Service struct {
	store    Pinger
	cache    Pinger
	jobs     JobCounter
	realtime ClientCounter
	now      func() time.Time
}

func NewService(store Pinger, cache Pinger, jobs JobCounter, realtime ClientCounter) *Service {
	return &Service{store: store, cache: cache, jobs: jobs, realtime: realtime, now: time.Now}
}

func (s *Service) Report(ctx context.Context) Report {
	r := Report{ServerTime: s.now().UTC()}

	r.StoreHealthy = ping(ctx, s.store)
	r.CacheHealthy = ping(ctx, s.cache)

	if r.StoreHealthy && s.jobs != nil {
		if n, err := s.jobs.Count(ctx); err == nil {
			r.Jobs = n
		}
	}
	if s.realtime != nil {
		r.RealtimeClients = s.realtime.ClientCount()
	}
	return r
}

func ping(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Ping(pingCtx) == nil
}
