package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splithub/internal/auth"
	"github.com/mmynk/splithub/internal/cache"
	"github.com/mmynk/splithub/internal/middleware"
	"github.com/mmynk/splithub/internal/storage/sqlite"
	"github.com/mmynk/splithub/pkg/api"
)

// setupAuthServer serves the auth and group services behind the real JWT interceptor.
func setupAuthServer(t *testing.T) (*api.AuthClient, *api.GroupClient) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "auth-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	denylist := cache.NewTokenDenylist(cache.NewMemory(100, time.Hour))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour).WithDenylist(denylist)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	interceptors := connect.WithInterceptors(middleware.RequireAuth(jwtManager))
	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, store, logger), interceptors))
	mux.Handle(api.NewGroupServiceHandler(NewGroupService(store, nil), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return api.NewAuthClient(http.DefaultClient, server.URL), api.NewGroupClient(http.DefaultClient, server.URL)
}

func bearer[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func TestRegister(t *testing.T) {
	client, _ := setupAuthServer(t)
	ctx := context.Background()

	resp, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       "  Alice@Example.com ",
		Password:    "correct-horse",
		DisplayName: "Alice",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if resp.Msg.Token == "" {
		t.Error("expected a token")
	}
	if resp.Msg.User.Email != "alice@example.com" {
		t.Errorf("email: expected normalized address, got %q", resp.Msg.User.Email)
	}

	tests := []struct {
		name string
		req  *api.RegisterRequest
		code connect.Code
	}{
		{"duplicate email", &api.RegisterRequest{Email: "alice@example.com", Password: "another-pass", DisplayName: "A"}, connect.CodeAlreadyExists},
		{"weak password", &api.RegisterRequest{Email: "bob@example.com", Password: "short", DisplayName: "Bob"}, connect.CodeInvalidArgument},
		{"invalid email", &api.RegisterRequest{Email: "not-an-email", Password: "long-enough", DisplayName: "Bob"}, connect.CodeInvalidArgument},
		{"missing name", &api.RegisterRequest{Email: "bob@example.com", Password: "long-enough"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Register(ctx, connect.NewRequest(tt.req))
			expectCode(t, err, tt.code)
		})
	}
}

func TestLoginAndLogout(t *testing.T) {
	client, groups := setupAuthServer(t)
	ctx := context.Background()

	if _, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "bob@example.com", Password: "hunter22hunter", DisplayName: "Bob",
	})); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := client.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "bob@example.com", Password: "wrong-password"}))
	expectCode(t, err, connect.CodeUnauthenticated)

	_, err = client.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "bob@example.com"}))
	expectCode(t, err, connect.CodeInvalidArgument)

	login, err := client.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "BOB@example.com", Password: "hunter22hunter"}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	token := login.Msg.Token

	me, err := client.GetCurrentUser(ctx, bearer(token, &api.GetCurrentUserRequest{}))
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if me.Msg.User.DisplayName != "Bob" {
		t.Errorf("display name: expected 'Bob', got '%s'", me.Msg.User.DisplayName)
	}

	// The token also works for the domain services.
	created, err := groups.CreateGroup(ctx, bearer(token, &api.CreateGroupRequest{Name: "Climbing"}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if created.Msg.Group.OwnerID != me.Msg.User.ID {
		t.Errorf("owner: expected %s, got %s", me.Msg.User.ID, created.Msg.Group.OwnerID)
	}

	_, err = groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{}))
	expectCode(t, err, connect.CodeUnauthenticated)

	if _, err := client.Logout(ctx, bearer(token, &api.LogoutRequest{})); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	_, err = client.GetCurrentUser(ctx, bearer(token, &api.GetCurrentUserRequest{}))
	expectCode(t, err, connect.CodeUnauthenticated)
}
