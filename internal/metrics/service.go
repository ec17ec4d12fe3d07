// Package metrics reads the dashboard summary.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/SahilWadhwani/threathunt-console/internal/api"
	"github.com/SahilWadhwani/threathunt-console/internal/querycache"
	"github.com/SahilWadhwani/threathunt-console/internal/session"
)

// ResourceName is the cache resource for the metrics summary.
const ResourceName = "metrics"

// HourBucket is one point of the 24h event sparkline.
type HourBucket struct {
	TS    time.Time `json:"ts"`
	Count int64     `json:"count"`
}

// Summary is the GET /metrics/summary response.
type Summary struct {
	EventsLast24h        int64            `json:"events_last_24h"`
	DetectionsOpen       int64            `json:"detections_open"`
	DetectionsBySeverity map[string]int64 `json:"detections_by_severity"`
	BlocklistActive      int64            `json:"blocklist_active"`
	EventsHourly24h      []HourBucket     `json:"events_hourly_24h"`
	Now                  time.Time        `json:"now"`
}

// Service provides the cached summary read.
type Service struct {
	api   *api.Client
	cache *querycache.Cache
	sess  *session.Store
}

// NewService creates a metrics service.
func NewService(c *api.Client, cache *querycache.Cache, sess *session.Store) *Service {
	return &Service{api: c, cache: cache, sess: sess}
}

// Summary returns the current dashboard numbers.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	token := s.sess.AccessToken()
	key := querycache.NewKey(ResourceName, nil, token)

	return querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*Summary, error) {
		var out Summary
		if err := s.api.Get(ctx, "/metrics/summary", token, &out); err != nil {
			return nil, fmt.Errorf("reading metrics summary: %w", err)
		}
		return &out, nil
	})
}
