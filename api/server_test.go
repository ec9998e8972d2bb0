package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moyoez/sharegate/api/middlewares"
	"github.com/moyoez/sharegate/api/models"
	"github.com/moyoez/sharegate/l10n"
	"github.com/moyoez/sharegate/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	*Server
	store   *models.MemoryShareStore
	handler http.Handler
	dir     string
}

// newTestServer publishes a protected file share "abc123" (password "secret")
// and an open folder share "open42".
func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(file, []byte("quarterly"), 0o600))
	folder := filepath.Join(dir, "photos")
	require.NoError(t, os.MkdirAll(filepath.Join(folder, "2024"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "2024", "beach.jpg"), []byte("jpg"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.txt"), []byte("nope"), 0o600))

	catalog, err := l10n.NewCatalog()
	require.NoError(t, err)

	cfg := &types.AppConfig{
		OwnerID:         "u1",
		Protocol:        "http",
		PublicHost:      "share.test",
		BcryptCost:      bcrypt.MinCost,
		SessionTTL:      60,
		RateLimitPerMin: rateLimit,
		Shares: []types.ShareSeed{
			{Token: "abc123", Path: file, Password: "secret"},
			{Token: "open42", Path: folder},
		},
	}
	store := models.NewMemoryShareStore(time.Hour)
	srv := NewServer(cfg, store, catalog)
	require.NoError(t, srv.PublishSeeds(context.Background()))
	return &testServer{Server: srv, store: store, handler: srv.Handler(), dir: dir}
}

type visitor struct {
	ts           *testServer
	cookie       *http.Cookie
	lang         string
	addr         string
	forwardedFor string
}

func (v *visitor) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if v.lang != "" {
		req.Header.Set("Accept-Language", v.lang)
	}
	if v.addr != "" {
		req.RemoteAddr = v.addr
	}
	if v.forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", v.forwardedFor)
	}
	if v.cookie != nil {
		req.AddCookie(v.cookie)
	}
	w := httptest.NewRecorder()
	v.ts.handler.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == middlewares.SessionCookieName {
			v.cookie = c
		}
	}
	return w
}

func (v *visitor) get(target string) *httptest.ResponseRecorder {
	return v.do(http.MethodGet, target, nil)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestPasswordThenSessionFlow(t *testing.T) {
	ts := newTestServer(t, 0)
	alice := &visitor{ts: ts}

	w := alice.get("/api/share/v1/abc123/info")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, l10n.PasswordProtected, body["error"])
	assert.Equal(t, "UNAUTHORIZED", body["code"])
	assert.Nil(t, alice.cookie, "nothing to remember yet")

	w = alice.get("/api/share/v1/abc123/info?password=secret")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, alice.cookie, "unlocking should issue a session cookie")
	assert.True(t, alice.cookie.HttpOnly)
	assert.Equal(t, 60, alice.cookie.MaxAge)
	info := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "report.pdf", info["name"])
	assert.Equal(t, "file", info["itemType"])
	assert.Equal(t, true, info["protected"])
	assert.EqualValues(t, len("quarterly"), info["size"])

	// the session now remembers the share
	w = alice.get("/api/share/v1/abc123/download")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "quarterly", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report.pdf")

	bob := &visitor{ts: ts}
	w = bob.get("/api/share/v1/abc123/info")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionCookieLifecycle(t *testing.T) {
	ts := newTestServer(t, 0)

	stranger := &visitor{ts: ts, addr: "127.0.0.1:12345"}
	stranger.get("/api/share/v1/nope/info")
	stranger.get("/api/share/v1/open42/files")
	stranger.get("/api/self/v1/status")
	assert.Nil(t, stranger.cookie, "requests that store nothing get no session")

	v := &visitor{ts: ts}
	require.Equal(t, http.StatusOK, v.get("/api/share/v1/abc123/info?password=secret").Code)
	require.NotNil(t, v.cookie)
	unlocked := v.cookie.Value

	// known sessions get their cookie renewed on every visit
	w := v.get("/api/share/v1/abc123/info")
	require.Equal(t, http.StatusOK, w.Code)
	var renewed *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middlewares.SessionCookieName {
			renewed = c
		}
	}
	require.NotNil(t, renewed)
	assert.Equal(t, unlocked, renewed.Value)
	assert.Equal(t, 60, renewed.MaxAge)

	// unlocking again issues a new id and retires the old one
	w = v.do(http.MethodPost, "/api/share/v1/abc123/authenticate", url.Values{"password": {"secret"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, unlocked, v.cookie.Value)
	assert.Equal(t, http.StatusOK, v.get("/api/share/v1/abc123/info").Code)

	replay := &visitor{ts: ts, cookie: &http.Cookie{Name: middlewares.SessionCookieName, Value: unlocked}}
	assert.Equal(t, http.StatusUnauthorized, replay.get("/api/share/v1/abc123/info").Code)
}

func TestWrongPassword(t *testing.T) {
	ts := newTestServer(t, 0)
	v := &visitor{ts: ts}

	w := v.get("/api/share/v1/abc123/info?password=guess")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, l10n.WrongPassword, decodeBody(t, w)["error"])

	// a failed attempt does not unlock the share for the session
	w = v.get("/api/share/v1/abc123/info")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateWithForm(t *testing.T) {
	ts := newTestServer(t, 0)
	v := &visitor{ts: ts}

	w := v.do(http.MethodPost, "/api/share/v1/abc123/authenticate", url.Values{"password": {"secret"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ok", decodeBody(t, w)["status"])

	w = v.get("/api/share/v1/abc123/info")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownTokenIsLocalized(t *testing.T) {
	ts := newTestServer(t, 0)

	var localizedTests = []struct {
		title string
		lang  string
		want  string
	}{
		{title: "Default language", lang: "", want: l10n.LinkNotWorking},
		{title: "Portuguese", lang: "pt-PT,pt;q=0.9", want: "Desculpe, esta hiperligação parece que já não funciona."},
		{title: "Unsupported language falls back to English", lang: "ja", want: l10n.LinkNotWorking},
	}
	for _, tt := range localizedTests {
		t.Run(tt.title, func(t *testing.T) {
			v := &visitor{ts: ts, lang: tt.lang}
			w := v.get("/api/share/v1/nope/info?password=secret")
			require.Equal(t, http.StatusNotFound, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.want, body["error"])
			assert.Equal(t, "NOT_FOUND", body["code"])
			assert.NotContains(t, w.Body.String(), "Passed token", "diagnostics stay in the logs")
		})
	}
}

func TestRevokedShareIsNotFound(t *testing.T) {
	ts := newTestServer(t, 0)
	v := &visitor{ts: ts}
	require.Equal(t, http.StatusOK, v.get("/api/share/v1/abc123/info?password=secret").Code)

	shares, err := ts.store.ListShares(context.Background())
	require.NoError(t, err)
	for _, rec := range shares {
		if rec.Token == "abc123" {
			_, err := ts.store.DeleteShare(context.Background(), rec.ShareID)
			require.NoError(t, err)
		}
	}

	w := v.get("/api/share/v1/abc123/info")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenFolderShare(t *testing.T) {
	ts := newTestServer(t, 0)
	v := &visitor{ts: ts}

	w := v.get("/api/share/v1/open42/files")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var listing struct {
		Data []types.FileInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Data, 1)
	assert.Equal(t, "2024", listing.Data[0].FileName)
	assert.True(t, listing.Data[0].IsDir)

	w = v.get("/api/share/v1/open42/download?path=2024/beach.jpg")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpg", w.Body.String())

	w = v.get("/api/share/v1/open42/download?path=" + url.QueryEscape("2024/../../secrets.txt"))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, l10n.FileNotFound, decodeBody(t, w)["error"])

	w = v.get("/api/share/v1/open42/download?path=2024")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSymlinkCannotLeaveFolderShare(t *testing.T) {
	ts := newTestServer(t, 0)
	link := filepath.Join(ts.dir, "photos", "2024", "escape.txt")
	if err := os.Symlink(filepath.Join(ts.dir, "secrets.txt"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	v := &visitor{ts: ts}

	w := v.get("/api/share/v1/open42/download?path=2024/escape.txt")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "nope")
	assert.Equal(t, l10n.FileNotFound, decodeBody(t, w)["error"])
}

func TestGuestPageNeedsNoToken(t *testing.T) {
	ts := newTestServer(t, 0)
	v := &visitor{ts: ts, lang: "de"}

	w := v.get("/api/share/v1/error")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.NotEqual(t, l10n.LinkNotWorking, body["title"], "title should be translated")
	assert.Len(t, body["reasons"], 3)
}

func TestOwnerAPIIsLocalOnly(t *testing.T) {
	ts := newTestServer(t, 0)

	remote := &visitor{ts: ts, addr: "192.0.2.10:40000"}
	assert.Equal(t, http.StatusForbidden, remote.get("/api/self/v1/status").Code)

	spoofed := &visitor{ts: ts, addr: "192.0.2.10:40000", forwardedFor: "127.0.0.1"}
	assert.Equal(t, http.StatusForbidden, spoofed.get("/api/self/v1/shares").Code)
	assert.Equal(t, http.StatusForbidden, spoofed.do(http.MethodPost, "/api/self/v1/shares", nil).Code)

	local := &visitor{ts: ts, addr: "127.0.0.1:12345"}
	w := local.get("/api/self/v1/status")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "u1", body["owner"])
	assert.EqualValues(t, 2, body["shares"])
}

func TestMetricsCountDecisions(t *testing.T) {
	ts := newTestServer(t, 0)
	v := &visitor{ts: ts, addr: "127.0.0.1:12345"}
	v.get("/api/share/v1/abc123/info")
	v.get("/api/share/v1/nope/info")
	v.get("/api/share/v1/error")

	w := v.get("/api/self/v1/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	text := w.Body.String()
	assert.Contains(t, text, `sharegate_gate_decisions_total{intent="public",outcome="unauthorized"} 1`)
	assert.Contains(t, text, `sharegate_gate_decisions_total{intent="public",outcome="not_found"} 1`)
	assert.Contains(t, text, `sharegate_gate_decisions_total{intent="guest",outcome="skipped"} 1`)
}

func TestPublicRoutesAreRateLimited(t *testing.T) {
	ts := newTestServer(t, 2)
	v := &visitor{ts: ts, addr: "198.51.100.7:5000"}

	assert.Equal(t, http.StatusUnauthorized, v.get("/api/share/v1/abc123/info?password=a").Code)
	assert.Equal(t, http.StatusUnauthorized, v.get("/api/share/v1/abc123/info?password=b").Code)
	w := v.get("/api/share/v1/abc123/info?password=secret")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, l10n.TooManyAttempts, decodeBody(t, w)["error"])

	other := &visitor{ts: ts, addr: "198.51.100.8:5000"}
	assert.Equal(t, http.StatusOK, other.get("/api/share/v1/abc123/info?password=secret").Code)

	// forwarded headers do not give a client a fresh budget
	rotating := &visitor{ts: ts, addr: "203.0.113.5:6000"}
	codes := make([]int, 0, 4)
	for i := range 4 {
		rotating.forwardedFor = fmt.Sprintf("10.0.0.%d", i+1)
		codes = append(codes, rotating.get("/api/share/v1/abc123/info?password=guess").Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)

	// the guest page is not throttled
	assert.Equal(t, http.StatusOK, v.get("/api/share/v1/error").Code)
}

func TestUnknownRouteIsPlain404(t *testing.T) {
	ts := newTestServer(t, 0)
	v := &visitor{ts: ts}
	w := v.get("/nothing/here")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIntentTable(t *testing.T) {
	ts := newTestServer(t, 0)

	var intentTests = []struct {
		title  string
		method string
		path   string
		want   types.EndpointIntent
	}{
		{title: "Public info", method: http.MethodGet, path: "/api/share/v1/:token/info", want: types.IntentPublicPage},
		{title: "Public authenticate", method: http.MethodPost, path: "/api/share/v1/:token/authenticate", want: types.IntentPublicPage},
		{title: "Guest error page", method: http.MethodGet, path: "/api/share/v1/error", want: types.IntentGuest},
		{title: "Owner API", method: http.MethodPost, path: "/api/self/v1/shares", want: types.IntentStandard},
		{title: "Undeclared route", method: http.MethodGet, path: "/somewhere/else", want: types.IntentStandard},
		{title: "Wrong method", method: http.MethodDelete, path: "/api/share/v1/:token/info", want: types.IntentStandard},
	}
	for _, tt := range intentTests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ts.intents.Lookup(tt.method, tt.path))
		})
	}
}

func TestJoinPaths(t *testing.T) {
	assert.Equal(t, "/api/share/v1/:token/info", joinPaths("/api/share/v1", "/:token/info"))
	assert.Equal(t, "/api/share/v1/error", joinPaths("/api/share/v1/", "error"))
	assert.Equal(t, "/api", joinPaths("/api", ""))
	assert.Equal(t, "/x", joinPaths("/", "/x"))
}
