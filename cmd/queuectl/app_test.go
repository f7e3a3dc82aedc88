package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-queue-client/apimodel"
	"github.com/jrsteele09/go-queue-client/internal/config"
	"github.com/jrsteele09/go-queue-client/queues"
	"github.com/jrsteele09/go-queue-client/server"
	"github.com/jrsteele09/go-queue-client/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type cliFixture struct {
	cfg config.Config
	api *server.Server
}

func setupCLI(t *testing.T, opts ...server.Option) *cliFixture {
	t.Helper()
	opts = append([]server.Option{server.WithLogger(zerolog.Nop())}, opts...)
	api, err := server.New(config.New(), opts...)
	require.NoError(t, err)
	_, err = api.RegisterProvider("owner@example.com", "Secret123", "Cafe", "High St")
	require.NoError(t, err)

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	t.Setenv("QUEUECORE_BASE_URL", srv.URL)
	t.Setenv("QUEUECORE_STORE_PATH", filepath.Join(t.TempDir(), "session.db"))
	cfg, err := config.Load()
	require.NoError(t, err)
	return &cliFixture{cfg: cfg, api: api}
}

func (f *cliFixture) open(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a, err := newApp(f.cfg, &out, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, &out
}

func TestRun_SessionLifecycle(t *testing.T) {
	f := setupCLI(t)
	ctx := context.Background()
	a, out := f.open(t)

	require.NoError(t, a.Run(ctx, []string{"status"}))
	require.Contains(t, out.String(), "not logged in")

	out.Reset()
	require.NoError(t, a.Run(ctx, []string{"login", "-email", "owner@example.com", "-password", "Secret123"}))
	require.Contains(t, out.String(), "logged in")

	out.Reset()
	require.NoError(t, a.Run(ctx, []string{"create", "-name", "Front desk", "-description", "walk ins"}))
	require.Contains(t, out.String(), `created queue "Front desk"`)

	out.Reset()
	require.NoError(t, a.Run(ctx, []string{"list"}))
	require.Contains(t, out.String(), "Front desk")
	require.Contains(t, out.String(), "1-1 of 1")

	qc, err := a.queueClient(ctx)
	require.NoError(t, err)
	page, err := qc.FetchPage(ctx, queues.DefaultPageQuery())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	out.Reset()
	require.NoError(t, a.Run(ctx, []string{"get", page.Items[0].Code}))
	require.Contains(t, out.String(), `"name": "Front desk"`)

	out.Reset()
	require.NoError(t, a.Run(ctx, []string{"refresh"}))
	require.Contains(t, out.String(), "refreshed")

	out.Reset()
	require.NoError(t, a.Run(ctx, []string{"logout"}))
	require.False(t, a.session.Authenticated())

	err = a.Run(ctx, []string{"list"})
	require.Equal(t, 3, exitCode(err))
}

func TestRun_SessionSurvivesReopen(t *testing.T) {
	f := setupCLI(t)
	ctx := context.Background()

	first, _ := f.open(t)
	require.NoError(t, first.Run(ctx, []string{"login", "-email", "owner@example.com", "-password", "Secret123"}))
	first.Close()

	second, out := f.open(t)
	require.NoError(t, second.Run(ctx, []string{"status"}))
	require.Contains(t, out.String(), "logged in (authenticated)")
}

func TestRun_InterruptAbandonsRefresh(t *testing.T) {
	f := setupCLI(t, server.WithRouteLatency("POST "+apimodel.RouteRefresh, 1500*time.Millisecond))
	a, _ := f.open(t)
	a.store.Set(token.RefreshKey, "r1")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	err := a.Run(ctx, []string{"list"})
	require.Error(t, err)
	require.Equal(t, 5, exitCode(err))
	require.Less(t, time.Since(start), time.Second)
}

func TestRun_Failures(t *testing.T) {
	f := setupCLI(t)
	ctx := context.Background()
	a, _ := f.open(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "no command", args: nil, code: 2},
		{name: "unknown command", args: []string{"dance"}, code: 2},
		{name: "bad flag", args: []string{"login", "-nope"}, code: 2},
		{name: "wrong password", args: []string{"login", "-email", "owner@example.com", "-password", "wrong"}, code: 3},
		{name: "unknown email", args: []string{"login", "-email", "who@example.com", "-password", "x"}, code: 3},
		{name: "missing credentials", args: []string{"login"}, code: 2},
		{name: "get without code", args: []string{"get"}, code: 2},
		{name: "refresh without session", args: []string{"refresh"}, code: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Run(ctx, tt.args)
			require.Error(t, err)
			require.Equal(t, tt.code, exitCode(err))
		})
	}
}
