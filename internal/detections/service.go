// Package detections reads server-produced findings and reduces their
// evidence to actionable values (the primary source address).
package detections

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/SahilWadhwani/threathunt-console/internal/api"
	"github.com/SahilWadhwani/threathunt-console/internal/querycache"
	"github.com/SahilWadhwani/threathunt-console/internal/session"
)

// ResourceName is the cache resource for detection reads.
const ResourceName = "detections"

// ListFilter narrows a detection listing.
type ListFilter struct {
	Kind     string
	Status   Status
	Severity Severity
	Limit    int
}

func (f ListFilter) values() url.Values {
	v := url.Values{}
	if f.Kind != "" {
		v.Set("kind", f.Kind)
	}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if f.Severity != "" {
		v.Set("severity", string(f.Severity))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// Service provides cached detection reads.
type Service struct {
	api   *api.Client
	cache *querycache.Cache
	sess  *session.Store
}

// NewService creates a detections service.
func NewService(c *api.Client, cache *querycache.Cache, sess *session.Store) *Service {
	return &Service{api: c, cache: cache, sess: sess}
}

// List returns detections matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Detection, error) {
	params := f.values()
	token := s.sess.AccessToken()
	key := querycache.NewKey(ResourceName, params, token)

	path := "/detections"
	if enc := params.Encode(); enc != "" {
		path += "?" + enc
	}
	return querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]Detection, error) {
		var out []Detection
		if err := s.api.Get(ctx, path, token, &out); err != nil {
			return nil, fmt.Errorf("listing detections: %w", err)
		}
		return out, nil
	})
}

// Get returns one detection with its evidence. An unknown id surfaces
// as a not-found failure (api.IsNotFound) so callers render a
// not-found state instead of a retryable error.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	token := s.sess.AccessToken()
	params := url.Values{"id": {strconv.FormatInt(id, 10)}}
	key := querycache.NewKey(ResourceName, params, token)

	return querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*Detail, error) {
		var out Detail
		if err := s.api.Get(ctx, fmt.Sprintf("/detections/%d", id), token, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}
