// Package stockapi maps the REST resources of the stock management API to
// typed calls. Each call issues one upstream request; reads may be served
// from the session's query cache and mutations invalidate what they affect.
package stockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/erazemk/stockmgtr/internal/cache"
	"github.com/erazemk/stockmgtr/internal/upstream"
)

// TTLs are the staleness windows of cached reads. A zero window disables
// caching for that class.
type TTLs struct {
	List      time.Duration
	Directory time.Duration
}

// DefaultTTLs are the windows used when none are configured.
var DefaultTTLs = TTLs{List: cache.ListTTL, Directory: cache.DirectoryTTL}

// Service is the resource API of one session.
type Service struct {
	client *upstream.Client
	cache  *cache.Cache
	scope  string
	ttl    TTLs
}

// New returns a Service calling through client. Cached reads are stored in c
// under scope, which must be unique per session. c may be nil.
func New(client *upstream.Client, c *cache.Cache, scope string, ttl TTLs) *Service {
	return &Service{client: client, cache: c, scope: scope, ttl: ttl}
}

// Client returns the underlying upstream client.
func (s *Service) Client() *upstream.Client { return s.client }

func (s *Service) get(ctx context.Context, path string, query url.Values, ttl time.Duration, out any) error {
	if s.cache == nil || ttl <= 0 {
		return s.client.Get(ctx, path, query, out)
	}
	key := cache.Key(s.scope, path, query.Encode())
	data, err := s.cache.Get(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		return s.client.GetRaw(ctx, path, query)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// invalidate drops cached reads under each resource path.
func (s *Service) invalidate(paths ...string) {
	if s.cache == nil {
		return
	}
	for _, p := range paths {
		s.cache.InvalidatePrefix(cache.Key(s.scope, p, ""))
	}
}

// Message is the acknowledgement returned by action endpoints.
type Message struct {
	Message string `json:"message"`
}

// ListOptions pages through a list.
type ListOptions struct {
	Page     int
	PageSize int
	Search   string
	Status   string
	Ordering string
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	setInt(v, "page", o.Page)
	setInt(v, "page_size", o.PageSize)
	setString(v, "search", o.Search)
	setString(v, "status", o.Status)
	setString(v, "ordering", o.Ordering)
	return v
}

func setInt(v url.Values, key string, n int) {
	if n > 0 {
		v.Set(key, strconv.Itoa(n))
	}
}

func setInt64(v url.Values, key string, n int64) {
	if n > 0 {
		v.Set(key, strconv.FormatInt(n, 10))
	}
}

func setString(v url.Values, key, s string) {
	if s != "" {
		v.Set(key, s)
	}
}

func resource(base string, id int64) string {
	return fmt.Sprintf("%s%d/", base, id)
}

func action(base string, id int64, name string) string {
	return fmt.Sprintf("%s%d/%s/", base, id, name)
}
