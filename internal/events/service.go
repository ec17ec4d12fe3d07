// Package events searches the normalized telemetry stream that
// detections cite as evidence.
package events

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/SahilWadhwani/threathunt-console/internal/api"
	"github.com/SahilWadhwani/threathunt-console/internal/querycache"
	"github.com/SahilWadhwani/threathunt-console/internal/session"
)

// ResourceName is the cache resource for event reads.
const ResourceName = "events"

// Row is one normalized event record.
type Row struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	EventModule string    `json:"event_module"`
	EventAction string    `json:"event_action"`
	SrcIP       string    `json:"src_ip,omitempty"`
	User        string    `json:"user,omitempty"`
	HTTPPath    string    `json:"http_path,omitempty"`
	Country     string    `json:"country,omitempty"`
}

// Filter narrows an event search. Zero fields are omitted from the
// query.
type Filter struct {
	Module string
	Action string
	SrcIP  string
	User   string
	Start  string
	End    string
	Limit  int
	Offset int
}

func (f Filter) values() url.Values {
	v := url.Values{}
	if f.Module != "" {
		v.Set("event_module", f.Module)
	}
	if f.Action != "" {
		v.Set("event_action", f.Action)
	}
	if f.SrcIP != "" {
		v.Set("src_ip", f.SrcIP)
	}
	if f.User != "" {
		v.Set("user", f.User)
	}
	if f.Start != "" {
		v.Set("start", f.Start)
	}
	if f.End != "" {
		v.Set("end", f.End)
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		v.Set("offset", strconv.Itoa(f.Offset))
	}
	return v
}

// Service provides cached event searches.
type Service struct {
	api   *api.Client
	cache *querycache.Cache
	sess  *session.Store
}

// NewService creates an events service.
func NewService(c *api.Client, cache *querycache.Cache, sess *session.Store) *Service {
	return &Service{api: c, cache: cache, sess: sess}
}

// Search returns events matching the filter.
func (s *Service) Search(ctx context.Context, f Filter) ([]Row, error) {
	params := f.values()
	token := s.sess.AccessToken()
	key := querycache.NewKey(ResourceName, params, token)

	path := "/events"
	if enc := params.Encode(); enc != "" {
		path += "?" + enc
	}
	return querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]Row, error) {
		var out []Row
		if err := s.api.Get(ctx, path, token, &out); err != nil {
			return nil, fmt.Errorf("searching events: %w", err)
		}
		return out, nil
	})
}

// Page is one step of a paged export.
type Page struct {
	Rows   []Row
	Offset int
}

// Export walks the event stream page by page, invoking emit for each
// page until a short page signals the end. The page size doubles as
// the request limit; progress reporting is the caller's concern.
func (s *Service) Export(ctx context.Context, f Filter, pageSize int, emit func(Page) error) error {
	if pageSize <= 0 {
		pageSize = 500
	}
	f.Limit = pageSize
	for offset := 0; ; offset += pageSize {
		f.Offset = offset
		rows, err := s.Search(ctx, f)
		if err != nil {
			return fmt.Errorf("exporting events at offset %d: %w", offset, err)
		}
		if len(rows) > 0 {
			if err := emit(Page{Rows: rows, Offset: offset}); err != nil {
				return err
			}
		}
		if len(rows) < pageSize {
			return nil
		}
	}
}
