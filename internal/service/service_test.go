package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/splithub/internal/events"
	"github.com/mmynk/splithub/internal/middleware"
	"github.com/mmynk/splithub/internal/storage/sqlite"
	"github.com/mmynk/splithub/pkg/api"
)

const testUserHeader = "X-Test-User"

// testAuthInterceptor returns a Connect interceptor that trusts the test user header.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if user := req.Header().Get(testUserHeader); user != "" {
				ctx = middleware.WithUser(ctx, user, user+"@example.com")
			}
			return next(ctx, req)
		}
	}
}

// as builds a request made by user.
func as[T any](user string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set(testUserHeader, user)
	return req
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	store         *sqlite.SQLiteStore
	publisher     *recordingPublisher
	groups        *api.GroupClient
	sessions      *api.SessionClient
	subscriptions *api.SubscriptionClient
}

// setupTestServer creates a test server with every domain service over a temp SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	publisher := &recordingPublisher{}
	authInterceptor := connect.WithInterceptors(testAuthInterceptor())

	mux := http.NewServeMux()
	mux.Handle(api.NewGroupServiceHandler(NewGroupService(store, publisher), authInterceptor))
	mux.Handle(api.NewSessionServiceHandler(NewSessionService(store, publisher), authInterceptor))
	mux.Handle(api.NewSubscriptionServiceHandler(NewSubscriptionService(store), authInterceptor))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return &testEnv{
		store:         store,
		publisher:     publisher,
		groups:        api.NewGroupClient(http.DefaultClient, server.URL),
		sessions:      api.NewSessionClient(http.DefaultClient, server.URL),
		subscriptions: api.NewSubscriptionClient(http.DefaultClient, server.URL),
	}
}

// expectCode fails the test unless err is a Connect error with the given code.
func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected connect error, got %T: %v", err, err)
	}
	if cerr.Code() != want {
		t.Errorf("code: expected %v, got %v (%v)", want, cerr.Code(), err)
	}
}
