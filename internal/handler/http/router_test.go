package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/utafrali/StorefrontGo/internal/catalog"
	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/event"
	"github.com/utafrali/StorefrontGo/internal/service"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
	"github.com/utafrali/StorefrontGo/pkg/health"
	"github.com/utafrali/StorefrontGo/pkg/httpclient"
	pkgkafka "github.com/utafrali/StorefrontGo/pkg/kafka"
	"github.com/utafrali/StorefrontGo/pkg/middleware"
)

// --- In-memory fakes ---

type fakeLocalStore struct {
	mu   sync.Mutex
	docs map[string]*domain.Collection
}

func newFakeLocalStore() *fakeLocalStore {
	return &fakeLocalStore{docs: make(map[string]*domain.Collection)}
}

func (s *fakeLocalStore) key(kind domain.Kind, owner string) string {
	return string(kind) + ":" + owner
}

func (s *fakeLocalStore) Get(_ context.Context, kind domain.Kind, owner string) (*domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.docs[s.key(kind, owner)]
	if !ok {
		return nil, apperrors.NotFound(string(kind), owner)
	}
	clone := *c
	clone.Items = append([]domain.Item(nil), c.Items...)
	return &clone, nil
}

func (s *fakeLocalStore) Save(_ context.Context, c *domain.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[s.key(c.Kind, c.OwnerKey)] = c
	return nil
}

func (s *fakeLocalStore) Delete(_ context.Context, kind domain.Kind, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, s.key(kind, owner))
	return nil
}

func (s *fakeLocalStore) SaveIfVersion(_ context.Context, c *domain.Collection, expected int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := 0
	if cur, ok := s.docs[s.key(c.Kind, c.OwnerKey)]; ok {
		stored = cur.Version
	}
	if stored != expected {
		return false, nil
	}
	c.Version = expected + 1
	s.docs[s.key(c.Kind, c.OwnerKey)] = c
	return true, nil
}

type fakeRemoteStore struct {
	mu       sync.Mutex
	docs     map[string]*domain.Collection
	mergeErr error
}

func newFakeRemoteStore() *fakeRemoteStore {
	return &fakeRemoteStore{docs: make(map[string]*domain.Collection)}
}

func (s *fakeRemoteStore) key(kind domain.Kind, owner string) string {
	return string(kind) + ":" + owner
}

func (s *fakeRemoteStore) Get(_ context.Context, kind domain.Kind, owner string) (*domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.docs[s.key(kind, owner)]
	if !ok {
		return nil, apperrors.NotFound(string(kind), owner)
	}
	return c, nil
}

func (s *fakeRemoteStore) Save(_ context.Context, c *domain.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[s.key(c.Kind, c.OwnerKey)] = c
	return nil
}

func (s *fakeRemoteStore) Delete(_ context.Context, kind domain.Kind, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, s.key(kind, owner))
	return nil
}

func (s *fakeRemoteStore) Merge(_ context.Context, kind domain.Kind, userID string, items []domain.Item) error {
	if s.mergeErr != nil {
		return s.mergeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.docs[s.key(kind, userID)]
	if !ok {
		c = domain.NewCollection(kind, userID)
		s.docs[s.key(kind, userID)] = c
	}
	for _, item := range items {
		c.Add(item.Product, item.Quantity)
	}
	return nil
}

type fakeScopeStore struct {
	mu     sync.Mutex
	scopes map[string]*domain.CatalogScope
}

func newFakeScopeStore() *fakeScopeStore {
	return &fakeScopeStore{scopes: make(map[string]*domain.CatalogScope)}
}

func (s *fakeScopeStore) GetScope(_ context.Context, visitorID string) (*domain.CatalogScope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scope, ok := s.scopes[visitorID]
	if !ok {
		return nil, apperrors.NotFound("catalog scope", visitorID)
	}
	return scope, nil
}

func (s *fakeScopeStore) SaveScope(_ context.Context, visitorID string, scope *domain.CatalogScope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[visitorID] = scope
	return nil
}

// --- Test server setup ---

type testEnv struct {
	server *httptest.Server
	local  *fakeLocalStore
	remote *fakeRemoteStore
	scopes *fakeScopeStore
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	local := newFakeLocalStore()
	remote := newFakeRemoteStore()
	scopes := newFakeScopeStore()

	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	events := event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)

	cartSvc := service.NewCartService(local, remote, events, logger)
	wishlistSvc := service.NewWishlistService(local, remote, events, logger)
	reconciler := service.NewMergeReconciler(local, remote, events, logger)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/nearby":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"warehouse": {"id": "wh-1", "name": "Central"}, "products": [{"_id": "p1", "name": "Mug", "price": 500}]}`))
		case "/pincode/560001":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"latitude": 12.97, "longitude": 77.59}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("catalog-handler-test"),
		logger,
	)
	catalogSvc := catalog.NewService(scopes, catalog.NewClient(cb, upstream.URL), logger)

	router := NewRouter(
		cartSvc,
		wishlistSvc,
		reconciler,
		catalogSvc,
		health.NewHandler(),
		logger,
		middleware.DefaultCORSConfig(),
		nil,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, local: local, remote: remote, scopes: scopes}
}
