package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-queue-client/apimodel"
	"github.com/jrsteele09/go-queue-client/internal/config"
	"github.com/jrsteele09/go-queue-client/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	ownerEmail    = "owner@example.com"
	ownerPassword = "Secret123"
)

type response struct {
	Code    int
	Header  http.Header
	Payload map[string]any
}

func (r response) body() map[string]any {
	b, _ := r.Payload["body"].(map[string]any)
	return b
}

func setupServer(t *testing.T, opts ...server.Option) *server.Server {
	t.Helper()
	opts = append([]server.Option{server.WithLogger(zerolog.Nop())}, opts...)
	s, err := server.New(config.New(), opts...)
	require.NoError(t, err)
	_, err = s.RegisterProvider(ownerEmail, ownerPassword, "Cafe", "High St")
	require.NoError(t, err)
	return s
}

func call(t *testing.T, h http.Handler, method, path, accessToken string, body any) response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := response{Code: rec.Code, Header: rec.Header()}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.Payload))
	}
	return out
}

func login(t *testing.T, h http.Handler, email, password string) (string, string) {
	t.Helper()
	res := call(t, h, http.MethodPost, apimodel.RouteProviderLogin, "", apimodel.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, res.Code)
	access, _ := res.body()["access_token"].(string)
	refresh, _ := res.body()["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := server.New(nil)
	require.Error(t, err)
}

func TestProviderLogin(t *testing.T) {
	s := setupServer(t)

	t.Run("unknown email", func(t *testing.T) {
		res := call(t, s, http.MethodPost, apimodel.RouteProviderLogin, "", apimodel.LoginRequest{Email: "nobody@example.com", Password: "x"})
		require.Equal(t, http.StatusNotFound, res.Code)
		require.EqualValues(t, http.StatusNotFound, res.Payload["status_code"])
		require.Equal(t, "Email not registered", res.body()["error"])
	})

	t.Run("wrong password", func(t *testing.T) {
		res := call(t, s, http.MethodPost, apimodel.RouteProviderLogin, "", apimodel.LoginRequest{Email: ownerEmail, Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, res.Code)
		require.Equal(t, "Invalid password", res.body()["error"])
	})

	t.Run("missing fields", func(t *testing.T) {
		res := call(t, s, http.MethodPost, apimodel.RouteProviderLogin, "", map[string]string{})
		require.Equal(t, http.StatusUnprocessableEntity, res.Code)
		require.NotEmpty(t, res.Payload["detail"])
	})

	t.Run("success", func(t *testing.T) {
		login(t, s, ownerEmail, ownerPassword)
		require.Equal(t, 4, s.Calls("POST "+apimodel.RouteProviderLogin))
	})

	t.Run("inner status mode answers HTTP 200", func(t *testing.T) {
		inner := setupServer(t, server.WithInnerStatus(true))
		res := call(t, inner, http.MethodPost, apimodel.RouteProviderLogin, "", apimodel.LoginRequest{Email: ownerEmail, Password: "wrong"})
		require.Equal(t, http.StatusOK, res.Code)
		require.EqualValues(t, http.StatusUnauthorized, res.Payload["status_code"])
	})
}

func TestProviderRegister(t *testing.T) {
	s := setupServer(t)

	res := call(t, s, http.MethodPost, apimodel.RouteProviderRegister, "", apimodel.RegisterRequest{
		Email: "new@example.com", Password: "Secret123", Name: "Barber", Location: "Main St",
	})
	require.Equal(t, http.StatusCreated, res.Code)
	login(t, s, "new@example.com", "Secret123")

	res = call(t, s, http.MethodPost, apimodel.RouteProviderRegister, "", apimodel.RegisterRequest{Email: ownerEmail, Password: "x"})
	require.Equal(t, http.StatusConflict, res.Code)
	require.Equal(t, "Email already registered", res.body()["error"])
}

func TestRefresh(t *testing.T) {
	s := setupServer(t)
	_, refresh := login(t, s, ownerEmail, ownerPassword)

	res := call(t, s, http.MethodPost, apimodel.RouteRefresh, "", apimodel.RefreshRequest{RefreshToken: refresh})
	require.Equal(t, http.StatusOK, res.Code)
	rotated, _ := res.body()["refresh_token"].(string)
	require.NotEmpty(t, rotated)
	require.NotEqual(t, refresh, rotated)

	t.Run("replayed token is rejected", func(t *testing.T) {
		res := call(t, s, http.MethodPost, apimodel.RouteRefresh, "", apimodel.RefreshRequest{RefreshToken: refresh})
		require.Equal(t, http.StatusUnauthorized, res.Code)
		require.Equal(t, "Invalid refresh token", res.body()["error"])
	})

	t.Run("missing token", func(t *testing.T) {
		res := call(t, s, http.MethodPost, apimodel.RouteRefresh, "", map[string]string{})
		require.Equal(t, http.StatusUnprocessableEntity, res.Code)
	})
}

func TestProviderLogout(t *testing.T) {
	s := setupServer(t)
	access, refresh := login(t, s, ownerEmail, ownerPassword)

	res := call(t, s, http.MethodPost, apimodel.RouteProviderLogout, access, struct{}{})
	require.Equal(t, http.StatusOK, res.Code)

	res = call(t, s, http.MethodGet, apimodel.RouteQueues, access, nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)

	res = call(t, s, http.MethodPost, apimodel.RouteRefresh, "", apimodel.RefreshRequest{RefreshToken: refresh})
	require.Equal(t, http.StatusUnauthorized, res.Code)

	res = call(t, s, http.MethodPost, apimodel.RouteProviderLogout, "", struct{}{})
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Equal(t, "Not authenticated", res.Payload["detail"])
}

func TestQueues(t *testing.T) {
	s := setupServer(t)
	access, _ := login(t, s, ownerEmail, ownerPassword)

	codes := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		res := call(t, s, http.MethodPost, apimodel.RouteQueueCreate, access, apimodel.Queue{
			Name: fmt.Sprintf("Queue %d", i), MaxBlockCapacity: 100, MaxPartyCapacity: 10, IsOpen: true,
		})
		require.Equal(t, http.StatusOK, res.Code)
		code, _ := res.body()["queue_code"].(string)
		require.Regexp(t, `^[A-Z0-9]{6}$`, code)
		codes = append(codes, code)
	}

	t.Run("list pages", func(t *testing.T) {
		res := call(t, s, http.MethodGet, apimodel.RouteQueues+"?limit=5&offset=0", access, nil)
		require.Equal(t, http.StatusOK, res.Code)
		require.EqualValues(t, 7, res.Payload["total"])
		require.Len(t, res.Payload["body"], 5)

		res = call(t, s, http.MethodGet, apimodel.RouteQueues+"?limit=5&offset=5", access, nil)
		require.EqualValues(t, 7, res.Payload["total"])
		require.Len(t, res.Payload["body"], 2)
	})

	t.Run("list bounds", func(t *testing.T) {
		for _, q := range []string{"?limit=0", "?limit=101", "?offset=-1", "?limit=abc"} {
			res := call(t, s, http.MethodGet, apimodel.RouteQueues+q, access, nil)
			require.Equal(t, http.StatusUnprocessableEntity, res.Code, q)
		}
	})

	t.Run("search", func(t *testing.T) {
		res := call(t, s, http.MethodGet, apimodel.RouteQueues+"?search=queue+4", access, nil)
		require.EqualValues(t, 1, res.Payload["total"])
	})

	t.Run("get", func(t *testing.T) {
		res := call(t, s, http.MethodGet, "/queues/"+codes[0], access, nil)
		require.Equal(t, http.StatusOK, res.Code)
		require.Equal(t, codes[0], res.body()["code"])
		require.Equal(t, "Queue 0", res.body()["name"])
	})

	t.Run("get unknown and malformed codes", func(t *testing.T) {
		res := call(t, s, http.MethodGet, "/queues/ZZZZZZ", access, nil)
		require.Equal(t, http.StatusNotFound, res.Code)
		require.Equal(t, "Queue not found", res.Payload["detail"])

		res = call(t, s, http.MethodGet, "/queues/abc", access, nil)
		require.Equal(t, http.StatusUnprocessableEntity, res.Code)
	})

	t.Run("other providers cannot read", func(t *testing.T) {
		_, err := s.RegisterProvider("other@example.com", "Other123", "Other", "")
		require.NoError(t, err)
		otherAccess, _ := login(t, s, "other@example.com", "Other123")

		res := call(t, s, http.MethodGet, "/queues/"+codes[0], otherAccess, nil)
		require.Equal(t, http.StatusForbidden, res.Code)

		res = call(t, s, http.MethodGet, apimodel.RouteQueues, otherAccess, nil)
		require.EqualValues(t, 0, res.Payload["total"])
	})

	t.Run("create validates", func(t *testing.T) {
		res := call(t, s, http.MethodPost, apimodel.RouteQueueCreate, access, apimodel.Queue{Name: "", MaxBlockCapacity: 1, MaxPartyCapacity: 1})
		require.Equal(t, http.StatusUnprocessableEntity, res.Code)
		require.Equal(t, "name is required", res.Payload["detail"])
	})

	t.Run("requires a token", func(t *testing.T) {
		res := call(t, s, http.MethodGet, apimodel.RouteQueues, "", nil)
		require.Equal(t, http.StatusForbidden, res.Code)

		res = call(t, s, http.MethodGet, apimodel.RouteQueues, "garbage", nil)
		require.Equal(t, http.StatusUnauthorized, res.Code)
	})
}

func TestCORS(t *testing.T) {
	s := setupServer(t)

	req := httptest.NewRequest(http.MethodOptions, apimodel.RouteQueues, nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	s := setupServer(t)
	res := call(t, s, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, res.Code)
}
