// Package cases manages analyst investigation records: cached reads
// plus the status/assignee/comment mutations, each an independent
// remote call followed by a cache invalidation for the cases resource.
package cases

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/SahilWadhwani/threathunt-console/internal/api"
	"github.com/SahilWadhwani/threathunt-console/internal/querycache"
	"github.com/SahilWadhwani/threathunt-console/internal/session"
)

// ResourceName is the cache resource for case reads. Lists and detail
// views share it, so any case mutation refetches both.
const ResourceName = "cases"

// Service provides cached case reads and coordinated mutations.
type Service struct {
	api   *api.Client
	cache *querycache.Cache
	sess  *session.Store
}

// NewService creates a cases service.
func NewService(c *api.Client, cache *querycache.Cache, sess *session.Store) *Service {
	return &Service{api: c, cache: cache, sess: sess}
}

// List returns all cases.
func (s *Service) List(ctx context.Context) ([]Row, error) {
	token := s.sess.AccessToken()
	key := querycache.NewKey(ResourceName, nil, token)

	return querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]Row, error) {
		var out []Row
		if err := s.api.Get(ctx, "/cases", token, &out); err != nil {
			return nil, fmt.Errorf("listing cases: %w", err)
		}
		return out, nil
	})
}

// Get returns one case. Unknown ids surface as not-found.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	token := s.sess.AccessToken()
	params := url.Values{"id": {strconv.FormatInt(id, 10)}}
	key := querycache.NewKey(ResourceName, params, token)

	return querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*Detail, error) {
		var out Detail
		if err := s.api.Get(ctx, fmt.Sprintf("/cases/%d", id), token, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// Create opens a new case and invalidates cached case reads on success.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Created, error) {
	token := s.sess.AccessToken()
	var created Created
	err := s.cache.Mutate(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, "/cases", in, token, &created)
	}, ResourceName)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// SetStatus moves a case to a new status. The backend takes the value
// as a query parameter with an empty body.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) error {
	token := s.sess.AccessToken()
	path := fmt.Sprintf("/cases/%d/status?new_status=%s", id, url.QueryEscape(status))
	return s.cache.Mutate(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, path, nil, token, nil)
	}, ResourceName)
}

// SetAssignee reassigns a case.
func (s *Service) SetAssignee(ctx context.Context, id int64, assignee string) error {
	token := s.sess.AccessToken()
	path := fmt.Sprintf("/cases/%d/assignee?assignee=%s", id, url.QueryEscape(assignee))
	return s.cache.Mutate(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, path, nil, token, nil)
	}, ResourceName)
}

// AddComment appends a comment to a case.
func (s *Service) AddComment(ctx context.Context, id int64, body string) error {
	token := s.sess.AccessToken()
	path := fmt.Sprintf("/cases/%d/comment", id)
	return s.cache.Mutate(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, path, map[string]string{"body": body}, token, nil)
	}, ResourceName)
}
