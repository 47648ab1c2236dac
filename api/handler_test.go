package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franchisehub/backoffice/api/middleware"
	"github.com/franchisehub/backoffice/internal/auth"
	"github.com/franchisehub/backoffice/internal/roles"
	"github.com/franchisehub/backoffice/pkg/config"
	"github.com/franchisehub/backoffice/pkg/db"
	"github.com/franchisehub/backoffice/pkg/db/dbtest"
	pkgredis "github.com/franchisehub/backoffice/pkg/redis"
	"github.com/franchisehub/backoffice/pkg/security"
)

const (
	adminEmail    = "root@franchisehub.test"
	adminPassword = "root-password"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newClient(t *testing.T, base string) *apiClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, base: base, client: &http.Client{Jar: jar}}
}

func (c *apiClient) do(method, path string, body any, headers ...string) (int, envelope) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

// cookie returns the value the jar holds for name.
func (c *apiClient) cookie(name string) string {
	c.t.Helper()
	u, err := url.Parse(c.base)
	require.NoError(c.t, err)
	for _, ck := range c.client.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	c.t.Fatalf("cookie %s not set", name)
	return ""
}

func (c *apiClient) login(email, password string) {
	c.t.Helper()
	status, env := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, status, env.Message)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev},
		JWT: config.JWTConfig{
			AccessSecret:           "access-secret",
			RefreshSecret:          "refresh-secret",
			Issuer:                 "backoffice-test",
			ExpirationMinutes:      30,
			RefreshTokenTTLMinutes: 10080,
		},
		Password: config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginEmailLimit: 50,
			LoginIPLimit:    100,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Bootstrap: config.BootstrapConfig{
			AdminEmail:    adminEmail,
			AdminPassword: adminPassword,
			AdminName:     "Root",
		},
	}
}

type harness struct {
	server *httptest.Server
	cfg    *config.Config
	db     *db.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()
	client := dbtest.Open(t)

	roleSvc, err := roles.NewService(roles.NewRepository(client.DB()), nil)
	require.NoError(t, err)
	_, err = roleSvc.SeedDefaults(ctx)
	require.NoError(t, err)
	_, err = auth.BootstrapAdmin(ctx, auth.BootstrapParams{
		DB:        client,
		Config:    cfg.Bootstrap,
		Passwords: security.NewHasher(cfg.Password),
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	handler, err := NewHandler(HandlerParams{
		Config:   cfg,
		DB:       client,
		Redis:    pkgredis.NewFromClient(raw),
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &harness{server: srv, cfg: cfg, db: client}
}

func (c *apiClient) createUser(email, password string) uuid.UUID {
	c.t.Helper()
	status, env := c.do(http.MethodPost, "/api/users", map[string]string{"email": email, "password": password, "name": "Manager"})
	require.Equal(c.t, http.StatusOK, status, env.Message)
	return decodeData[struct {
		ID uuid.UUID `json:"id"`
	}](c.t, env).ID
}

func (c *apiClient) roleID(code string) uuid.UUID {
	c.t.Helper()
	status, env := c.do(http.MethodGet, "/api/roles", nil)
	require.Equal(c.t, http.StatusOK, status, env.Message)
	for _, r := range decodeData[[]struct {
		ID   uuid.UUID `json:"id"`
		Code string    `json:"code"`
	}](c.t, env) {
		if r.Code == code {
			return r.ID
		}
	}
	c.t.Fatalf("role %s not listed", code)
	return uuid.Nil
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestAssignmentLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	admin := newClient(t, h.server.URL)

	status, env := admin.do(http.MethodGet, "/api/roles", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Code)

	admin.login(adminEmail, adminPassword)

	status, env = admin.do(http.MethodGet, "/api/auth", nil)
	require.Equal(t, http.StatusOK, status)
	profile := decodeData[struct {
		ActiveContext *struct {
			Role  string `json:"role"`
			Scope string `json:"scope"`
		} `json:"active_context"`
	}](t, env)
	require.NotNil(t, profile.ActiveContext)
	assert.Equal(t, "SUPER_ADMIN", profile.ActiveContext.Role)
	assert.Equal(t, "GLOBAL", profile.ActiveContext.Scope)

	status, env = admin.do(http.MethodGet, "/api/roles", nil)
	require.Equal(t, http.StatusOK, status)
	roleList := decodeData[[]struct {
		ID   uuid.UUID `json:"id"`
		Code string    `json:"code"`
	}](t, env)
	var managerRole uuid.UUID
	for _, r := range roleList {
		assert.NotEqual(t, "SUPER_ADMIN", r.Code)
		if r.Code == "MANAGER" {
			managerRole = r.ID
		}
	}
	require.NotEqual(t, uuid.Nil, managerRole)

	franchiseBody := map[string]any{"code": "NORTH", "name": "North Store"}
	status, env = admin.do(http.MethodPost, "/api/franchises", franchiseBody, "Idempotency-Key", "franchise-north")
	require.Equal(t, http.StatusOK, status, env.Message)
	north := decodeData[struct {
		ID uuid.UUID `json:"id"`
	}](t, env).ID

	status, env = admin.do(http.MethodPost, "/api/franchises", franchiseBody, "Idempotency-Key", "franchise-north")
	require.Equal(t, http.StatusOK, status, "replayed create should return the stored response")
	assert.Equal(t, north, decodeData[struct {
		ID uuid.UUID `json:"id"`
	}](t, env).ID)

	status, env = admin.do(http.MethodPost, "/api/franchises", map[string]any{"code": "SOUTH", "name": "South Store"}, "Idempotency-Key", "franchise-south")
	require.Equal(t, http.StatusOK, status, env.Message)
	south := decodeData[struct {
		ID uuid.UUID `json:"id"`
	}](t, env).ID

	managerID := admin.createUser("manager@franchisehub.test", "manager-password")
	assignBody := map[string]any{"user_id": managerID, "role_id": managerRole, "franchise_id": north}
	status, env = admin.do(http.MethodPost, "/api/assignments", assignBody, "Idempotency-Key", "assign-1")
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = admin.do(http.MethodPost, "/api/assignments", assignBody, "Idempotency-Key", "assign-2")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	manager := newClient(t, h.server.URL)
	manager.login("manager@franchisehub.test", "manager-password")

	status, _ = manager.do(http.MethodGet, "/api/franchises/"+north.String()+"/assignments", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = manager.do(http.MethodGet, "/api/franchises/"+south.String()+"/assignments", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You do not have access to this franchise", env.Message)

	status, env = manager.do(http.MethodPost, "/api/assignments", assignBody, "Idempotency-Key", "assign-3")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access denied. You are not allowed to perform this action.", env.Message)

	status, env = manager.do(http.MethodPost, "/api/assignments/search", map[string]any{"searchCondition": map[string]any{}, "pageInfo": map[string]any{"pageNum": 1, "pageSize": 10}})
	require.Equal(t, http.StatusOK, status, env.Message)
	page := decodeData[struct {
		PageData []struct {
			FranchiseID uuid.UUID `json:"franchise_id"`
		} `json:"pageData"`
		PageInfo struct {
			TotalItems int64 `json:"totalItems"`
		} `json:"pageInfo"`
	}](t, env)
	require.Len(t, page.PageData, 1)
	assert.Equal(t, north, page.PageData[0].FranchiseID)

	status, env = manager.do(http.MethodPost, "/api/users/search", map[string]any{"searchCondition": map[string]any{}, "pageInfo": map[string]any{"pageNum": 1, "pageSize": 10}})
	require.Equal(t, http.StatusOK, status, env.Message)
	members := decodeData[struct {
		PageData []struct {
			ID uuid.UUID `json:"id"`
		} `json:"pageData"`
	}](t, env)
	require.Len(t, members.PageData, 1, "managers only see users of their franchise")
	assert.Equal(t, managerID, members.PageData[0].ID)

	status, _ = manager.do(http.MethodPost, "/api/users", map[string]string{"email": "x@franchisehub.test", "password": "password-123"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = manager.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)
	status, env = manager.do(http.MethodGet, "/api/auth", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "You are not logged in. Please log in to continue!", env.Message)
}

func TestRefreshAndSwitchContextOverHTTP(t *testing.T) {
	h := newHarness(t)
	admin := newClient(t, h.server.URL)

	status, env := admin.do(http.MethodGet, "/api/auth/refresh-token", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Refresh token is missing", env.Message)

	admin.login(adminEmail, adminPassword)

	status, _ = admin.do(http.MethodGet, "/api/auth/refresh-token", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = admin.do(http.MethodPost, "/api/auth/switch-context", map[string]any{"franchise_id": uuid.New()})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	status, env = admin.do(http.MethodPost, "/api/auth/switch-context", map[string]any{"franchise_id": nil})
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "null", string(env.Data))

	status, env = admin.do(http.MethodGet, "/api/auth", nil)
	require.Equal(t, http.StatusOK, status)
	selected := decodeData[struct {
		ActiveContext struct {
			Scope string `json:"scope"`
		} `json:"active_context"`
	}](t, env)
	assert.Equal(t, "GLOBAL", selected.ActiveContext.Scope)
}

func TestLogoutInvalidatesEarlierTokens(t *testing.T) {
	h := newHarness(t)
	admin := newClient(t, h.server.URL)
	admin.login(adminEmail, adminPassword)
	access := admin.cookie(middleware.AccessTokenCookie)
	refresh := admin.cookie(middleware.RefreshTokenCookie)

	status, env := admin.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	replay := newClient(t, h.server.URL)
	status, env = replay.do(http.MethodGet, "/api/auth", nil, "Authorization", "Bearer "+access)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
	assert.Equal(t, "Invalid token", env.Message)

	status, env = replay.do(http.MethodGet, "/api/auth/refresh-token", nil, "Cookie", middleware.RefreshTokenCookie+"="+refresh)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Code)

	admin.login(adminEmail, adminPassword)
	status, _ = admin.do(http.MethodGet, "/api/auth", nil)
	assert.Equal(t, http.StatusOK, status, "a fresh login works after logout")
}

func TestBlockedUserLosesSessions(t *testing.T) {
	h := newHarness(t)
	admin := newClient(t, h.server.URL)
	admin.login(adminEmail, adminPassword)

	staffID := admin.createUser("ops@franchisehub.test", "ops-password")
	status, env := admin.do(http.MethodPost, "/api/assignments", map[string]any{"user_id": staffID, "role_id": admin.roleID("ADMIN")}, "Idempotency-Key", "assign-ops")
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = admin.do(http.MethodGet, "/api/users/"+staffID.String(), nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "ops@franchisehub.test", decodeData[struct {
		Email string `json:"email"`
	}](t, env).Email)

	ops := newClient(t, h.server.URL)
	ops.login("ops@franchisehub.test", "ops-password")
	status, _ = ops.do(http.MethodGet, "/api/auth", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = admin.do(http.MethodPut, "/api/users/"+staffID.String()+"/change-status", map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = ops.do(http.MethodGet, "/api/auth", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", env.Message)

	status, _ = ops.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ops@franchisehub.test", "password": "ops-password"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestOperationalEndpoints(t *testing.T) {
	h := newHarness(t)
	c := newClient(t, h.server.URL)

	status, _ := c.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := c.do(http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	resp, err := http.Get(h.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/health/live",status="200"}`)
}
