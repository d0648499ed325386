// Package nearby answers "which approved agents are close to this job" with
// a short-lived cache in front of the ranking.
package nearby

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/proximity"
	"sidecrew/internal/pkg/logger"
)

var (
	ErrInvalidLocation = errors.New("invalid location data")
	ErrInternal        = errors.New("internal error")
)

const cachePrefix = "proximity:"

type AgentLister interface {
	ListAgentCandidates(ctx context.Context) ([]account.Account, error)
}

type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type Service struct {
	agents   AgentLister
	cache    Cache
	ttl      time.Duration
	radiusKm float64
	log      *logger.Logger
}

// NewService builds the lookup. cache may be nil.
func NewService(agents AgentLister, cache Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{
		agents:   agents,
		cache:    cache,
		ttl:      ttl,
		radiusKm: proximity.DefaultRadiusKm,
		log:      logger.OrNop(log).With("component", "nearby"),
	}
}

// ParseCoordinates reads a latitude/longitude pair from raw query values.
func ParseCoordinates(latRaw, lngRaw string) (float64, float64, error) {
	lat, err := parseDegrees(latRaw, 90)
	if err != nil {
		return 0, 0, err
	}
	lng, err := parseDegrees(lngRaw, 180)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

func parseDegrees(raw string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return 0, ErrInvalidLocation
	}
	return v, nil
}

// NearbyAgents returns approved agents within the search radius of
// (lat, lng), nearest first.
func (s *Service) NearbyAgents(ctx context.Context, lat, lng float64) ([]proximity.Match, error) {
	key := cacheKey(lat, lng)
	if s.cache != nil {
		var cached []proximity.Match
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.Debug("proximity cache read failed", "key", key, "error", err)
		}
		if hit {
			return cached, nil
		}
	}

	list, err := s.agents.ListAgentCandidates(ctx)
	if err != nil {
		s.log.Error("list agent candidates failed", "error", err)
		return nil, ErrInternal
	}
	candidates := make([]proximity.Candidate, 0, len(list))
	for _, a := range list {
		if a.Latitude == nil || a.Longitude == nil {
			continue
		}
		candidates = append(candidates, proximity.Candidate{
			ID:         a.ID,
			Name:       a.Name,
			AgencyName: a.AgencyName,
			Rating:     a.Rating,
			Latitude:   *a.Latitude,
			Longitude:  *a.Longitude,
		})
	}
	matches := proximity.Rank(lat, lng, s.radiusKm, candidates)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, matches, s.ttl); err != nil {
			s.log.Debug("proximity cache write failed", "key", key, "error", err)
		}
	}
	return matches, nil
}

// Invalidate drops every cached ranking. Called when agent ratings or
// approvals change.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, cachePrefix+"*"); err != nil {
		s.log.Warn("proximity cache invalidation failed", "error", err)
	}
}

// cacheKey buckets the query point to roughly 11 m.
func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("%s%.4f:%.4f", cachePrefix, lat, lng)
}
