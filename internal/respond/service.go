// Package respond drives the blocklist: cached reads of active block
// rules, block creation with a bounded TTL and terminal deactivation.
package respond

import (
	"context"
	"fmt"

	"github.com/SahilWadhwani/threathunt-console/internal/api"
	"github.com/SahilWadhwani/threathunt-console/internal/querycache"
	"github.com/SahilWadhwani/threathunt-console/internal/session"
)

// ResourceName is the cache resource for blocklist reads.
const ResourceName = "blocks"

// DefaultTTLMinutes bounds a block when the caller does not specify a
// duration.
const DefaultTTLMinutes = 60

// BlockInput is the block_ip request body.
type BlockInput struct {
	IP         string `json:"ip"`
	Reason     string `json:"reason,omitempty"`
	TTLMinutes int    `json:"ttl_minutes,omitempty"`
}

// Service provides blocklist reads and mutations.
type Service struct {
	api   *api.Client
	cache *querycache.Cache
	sess  *session.Store
}

// NewService creates a respond service.
func NewService(c *api.Client, cache *querycache.Cache, sess *session.Store) *Service {
	return &Service{api: c, cache: cache, sess: sess}
}

// ListBlocks returns all block rules, active and expired.
func (s *Service) ListBlocks(ctx context.Context) ([]BlockRule, error) {
	token := s.sess.AccessToken()
	key := querycache.NewKey(ResourceName, nil, token)

	return querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]BlockRule, error) {
		var out []BlockRule
		if err := s.api.Get(ctx, "/respond/blocks", token, &out); err != nil {
			return nil, fmt.Errorf("listing blocks: %w", err)
		}
		return out, nil
	})
}

// BlockIP creates a new block rule. A zero TTL falls back to the
// default 60 minutes. Cached blocklist reads refetch on success.
func (s *Service) BlockIP(ctx context.Context, in BlockInput) (*BlockRule, error) {
	if in.IP == "" {
		return nil, fmt.Errorf("respond: ip is required")
	}
	if in.TTLMinutes <= 0 {
		in.TTLMinutes = DefaultTTLMinutes
	}

	token := s.sess.AccessToken()
	var rule BlockRule
	err := s.cache.Mutate(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, "/respond/block_ip", in, token, &rule)
	}, ResourceName)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// Unblock deactivates a rule. Deactivation is terminal; an unknown id
// surfaces as not-found.
func (s *Service) Unblock(ctx context.Context, id int64) error {
	token := s.sess.AccessToken()
	path := fmt.Sprintf("/respond/blocks/%d/unblock", id)
	return s.cache.Mutate(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, path, nil, token, nil)
	}, ResourceName)
}
