package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excelbot-backend-go/internal/config"
	"excelbot-backend-go/internal/services"
	"excelbot-backend-go/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		Profile:            config.ProfileDemo,
		JWTSecret:          "test-secret",
		SessionSecret:      "test-secret",
		JWTIssuer:          "test",
		AccessTTLSeconds:   900,
		RefreshTTLSeconds:  86400,
		SessionTTLSeconds:  3600,
		RateLimitWindowSec: 60,
		RateLimitMax:       100,
		DailyQuestionLimit: 20,
		BodyLimitBytes:     1 << 16,
		BcryptCost:         10,
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, http.Handler) {
	t.Helper()
	stores := Stores{
		Users:     store.NewMemoryUserStore(),
		Knowledge: store.NewMemoryKnowledgeStore(),
		Chat:      store.NewMemoryChatStore(),
	}
	require.NoError(t, store.SeedKnowledge(context.Background(), stores.Knowledge))
	server := NewServer(cfg, stores, nil, services.NewChatHub())
	require.NoError(t, server.Accounts.EnsureDemoUser(context.Background()))
	return server, server.Router()
}

func doJSON(handler http.Handler, method, path, body string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func loginDemo(t *testing.T, handler http.Handler) (AuthResponse, *http.Cookie) {
	t.Helper()
	rec := doJSON(handler, http.MethodPost, "/api/auth/login",
		`{"username":"demo","password":"demo123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.CSRFToken)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == SessionCookie && cookie.Value != "" {
			return resp, cookie
		}
	}
	t.Fatal("session cookie not set")
	return resp, nil
}

func TestHealth(t *testing.T) {
	_, handler := newTestServer(t, testConfig())

	rec := doJSON(handler, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestDemoLoginThenMe(t *testing.T) {
	_, handler := newTestServer(t, testConfig())
	resp, cookie := loginDemo(t, handler)
	assert.Equal(t, "demo", resp.User.Username)
	assert.NotEmpty(t, resp.AccessToken)

	rec := doJSON(handler, http.MethodGet, "/api/auth/me", "", func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]UserDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, resp.User.ID, body["user"].ID)
	assert.Equal(t, "demo", body["user"].Username)
}

func TestRegisterDuplicateReturnsConflict(t *testing.T) {
	_, handler := newTestServer(t, testConfig())
	payload := `{"username":"alice","email":"alice@example.com","password":"secret1"}`

	rec := doJSON(handler, http.MethodPost, "/api/auth/register", payload, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(handler, http.MethodPost, "/api/auth/register", payload, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, services.CodeConflict, errResp.Code)
}

func TestCSRFRequiredForCookieSessions(t *testing.T) {
	_, handler := newTestServer(t, testConfig())
	resp, cookie := loginDemo(t, handler)
	payload := `{"message":"how to use SUM"}`

	// Session cookie without the header is rejected even though the session
	// itself is valid.
	rec := doJSON(handler, http.MethodPost, "/api/chat/message", payload, func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, services.CodeCSRFInvalid, errResp.Code)

	rec = doJSON(handler, http.MethodPost, "/api/chat/message", payload, func(r *http.Request) {
		r.AddCookie(cookie)
		r.Header.Set("X-CSRF-Token", "forged")
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(handler, http.MethodPost, "/api/chat/message", payload, func(r *http.Request) {
		r.AddCookie(cookie)
		r.Header.Set("X-CSRF-Token", resp.CSRFToken)
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestBearerTokenSkipsCSRF(t *testing.T) {
	_, handler := newTestServer(t, testConfig())
	resp, _ := loginDemo(t, handler)

	rec := doJSON(handler, http.MethodPost, "/api/chat/message",
		`{"message":"how to use SUM"}`, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+resp.AccessToken)
		})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var chat ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
	assert.Contains(t, chat.Response, "SUM(number1, [number2], ...)")
	assert.NotEmpty(t, chat.Metadata.ConversationID)
}

func TestChatHistoryLifecycle(t *testing.T) {
	_, handler := newTestServer(t, testConfig())
	resp, cookie := loginDemo(t, handler)
	withSession := func(r *http.Request) {
		r.AddCookie(cookie)
		r.Header.Set("X-CSRF-Token", resp.CSRFToken)
	}

	rec := doJSON(handler, http.MethodPost, "/api/chat/message",
		`{"message":"how to use SUM"}`, withSession)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(handler, http.MethodGet, "/api/chat/history", "", withSession)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Messages []json.RawMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history.Messages, 2) // user turn + bot turn

	rec = doJSON(handler, http.MethodDelete, "/api/chat/history", "", withSession)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(handler, http.MethodGet, "/api/chat/history", "", withSession)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Empty(t, history.Messages)

	// Repeating the delete is still a 200.
	rec = doJSON(handler, http.MethodDelete, "/api/chat/history", "", withSession)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAnonymousChatByProfile(t *testing.T) {
	_, demoHandler := newTestServer(t, testConfig())
	rec := doJSON(demoHandler, http.MethodPost, "/api/chat/message",
		`{"message":"how to use SUM"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	hardened := testConfig()
	hardened.Profile = config.ProfileHardened
	_, hardenedHandler := newTestServer(t, hardened)
	rec = doJSON(hardenedHandler, http.MethodPost, "/api/chat/message",
		`{"message":"how to use SUM"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuestQuotaShared(t *testing.T) {
	cfg := testConfig()
	cfg.DailyQuestionLimit = 1
	_, handler := newTestServer(t, cfg)

	rec := doJSON(handler, http.MethodPost, "/api/chat/message",
		`{"message":"how to use SUM"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var chat ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
	assert.Equal(t, 0, chat.Metadata.RemainingToday)

	// The counter is shared across anonymous callers, not per connection.
	rec = doJSON(handler, http.MethodPost, "/api/chat/message",
		`{"message":"how to use SUM"}`, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, services.CodeUsageLimit, errResp.Code)
}

func TestChatMessageValidation(t *testing.T) {
	_, handler := newTestServer(t, testConfig())

	rec := doJSON(handler, http.MethodPost, "/api/chat/message", `{"message":"   "}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(handler, http.MethodPost, "/api/chat/message", `not json`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDailyQuotaExhaustion(t *testing.T) {
	cfg := testConfig()
	cfg.DailyQuestionLimit = 1
	_, handler := newTestServer(t, cfg)
	resp, cookie := loginDemo(t, handler)
	withSession := func(r *http.Request) {
		r.AddCookie(cookie)
		r.Header.Set("X-CSRF-Token", resp.CSRFToken)
	}

	rec := doJSON(handler, http.MethodPost, "/api/chat/message",
		`{"message":"how to use SUM"}`, withSession)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(handler, http.MethodPost, "/api/chat/message",
		`{"message":"how to use SUM"}`, withSession)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, services.CodeUsageLimit, errResp.Code)
}

func TestRateLimitPerIP(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitMax = 2
	_, handler := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		rec := doJSON(handler, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := doJSON(handler, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, services.CodeRateLimited, errResp.Code)
}

func TestAdminRoutesRequireRole(t *testing.T) {
	_, handler := newTestServer(t, testConfig())
	_, cookie := loginDemo(t, handler)

	rec := doJSON(handler, http.MethodGet, "/api/admin/metrics", "", func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(handler, http.MethodGet, "/api/admin/metrics", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFunctionLookup(t *testing.T) {
	_, handler := newTestServer(t, testConfig())

	rec := doJSON(handler, http.MethodGet, "/api/excel/functions/SUM", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SUM(number1, [number2], ...)")

	rec = doJSON(handler, http.MethodGet, "/api/excel/functions/NOPE", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFunctionSearch(t *testing.T) {
	_, handler := newTestServer(t, testConfig())

	rec := doJSON(handler, http.MethodGet, "/api/excel/functions/search?q=sum&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "SUM", resp.Items[0].Name)
}

func TestFAQVote(t *testing.T) {
	_, handler := newTestServer(t, testConfig())

	rec := doJSON(handler, http.MethodPost, "/api/excel/faq/freeze-panes/vote",
		`{"helpful":true}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"votes":1}`, rec.Body.String())

	rec = doJSON(handler, http.MethodPost, "/api/excel/faq/unknown/vote",
		`{"helpful":true}`, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	_, handler := newTestServer(t, testConfig())
	resp, cookie := loginDemo(t, handler)

	rec := doJSON(handler, http.MethodPost, "/api/auth/logout", "", func(r *http.Request) {
		r.AddCookie(cookie)
		r.Header.Set("X-CSRF-Token", resp.CSRFToken)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(handler, http.MethodGet, "/api/auth/me", "", func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	_, handler := newTestServer(t, testConfig())
	resp, _ := loginDemo(t, handler)

	rec := doJSON(handler, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+resp.RefreshToken+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "accessToken")

	// An access token is not accepted in place of a refresh token.
	rec = doJSON(handler, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+resp.AccessToken+`"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, services.CodeInvalidToken, errResp.Code)
}

func TestExpiredTokensReportTokenExpired(t *testing.T) {
	_, handler := newTestServer(t, testConfig())
	resp, _ := loginDemo(t, handler)

	expired := services.TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "test",
		AccessTTL:  -time.Minute,
		RefreshTTL: -time.Minute,
	}
	access, _, err := expired.CreateAccessToken(resp.User.ID, "demo", "user")
	require.NoError(t, err)
	refresh, err := expired.CreateRefreshToken(resp.User.ID)
	require.NoError(t, err)

	rec := doJSON(handler, http.MethodGet, "/api/auth/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+access)
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, services.CodeTokenExpired, errResp.Code)

	rec = doJSON(handler, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+refresh+`"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, services.CodeTokenExpired, errResp.Code)
}

func TestAuditLineNamesResolvedUser(t *testing.T) {
	_, handler := newTestServer(t, testConfig())
	resp, cookie := loginDemo(t, handler)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	rec := doJSON(handler, http.MethodGet, "/api/auth/me", "", func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "user="+resp.User.ID)

	buf.Reset()
	rec = doJSON(handler, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "user=-")
}
