package route

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	apperrors "github.com/pscheid92/themebridge/internal/platform/errors"
)

func respond(text string) Handler {
	return func(*Request) (*Response, error) {
		return OK(map[string]string{"handler": text})
	}
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	e.ServeHTTP(rec, req)
	return rec
}

func TestTree_HubChaining(t *testing.T) {
	tree := New()
	tree.Group("/api/v1/client/servers", func(n *Node) {
		n.Get("", respond("list")).
			Post("/connect", respond("connect")).
			Put("/add", respond("add")).
			Delete("/remove", respond("remove"))
	})

	assert.Equal(t, []string{
		"GET /api/v1/client/servers",
		"POST /api/v1/client/servers/connect",
		"PUT /api/v1/client/servers/add",
		"DELETE /api/v1/client/servers/remove",
	}, tree.Routes())
}

func TestTree_VerbsReturnTheirNode(t *testing.T) {
	tree := New()
	hub := tree.Group("/theme", nil)

	assert.Same(t, hub, hub.Put("/set", respond("set")).Put("/unset", respond("unset")))
	assert.Equal(t, []string{"PUT /theme/set", "PUT /theme/unset"}, tree.Routes())
}

func TestTree_ModulesShareNodes(t *testing.T) {
	tree := New()
	tree.Group("/api", nil).Get("/a", respond("a"))
	tree.Group("/api", nil).Get("/b", respond("b"))

	api := tree.Group("/api", nil)
	assert.Len(t, api.children, 2)
}

func TestTree_DuplicateRegistrationPanics(t *testing.T) {
	tree := New()
	tree.Get("/x", respond("first"))

	assert.PanicsWithValue(t, "route: duplicate handler for GET /x", func() {
		tree.Get("x", respond("second"))
	})
	assert.NotPanics(t, func() { tree.Post("/x", respond("post")) })
}

func TestTree_RegistrationAfterMountPanics(t *testing.T) {
	tree := New()
	tree.Get("/x", respond("x"))
	tree.Mount(echo.New())

	assert.Panics(t, func() { tree.Get("/y", respond("y")) })
	assert.Panics(t, func() { tree.Mount(echo.New()) })
}

func TestDispatch_IsDeterministic(t *testing.T) {
	tree := New()
	tree.Get("/a", respond("a")).Post("/b", respond("b"))
	tree.Get("/c", respond("c"))
	e := echo.New()
	tree.Mount(e)

	for range 20 {
		assert.Equal(t, "a", gjson.Get(serve(e, http.MethodGet, "/a", "").Body.String(), "handler").String())
		assert.Equal(t, "b", gjson.Get(serve(e, http.MethodPost, "/b", "").Body.String(), "handler").String())
		assert.Equal(t, "c", gjson.Get(serve(e, http.MethodGet, "/c", "").Body.String(), "handler").String())
	}
}

func TestDispatch_PassesRequest(t *testing.T) {
	var got *Request
	tree := New()
	tree.Put("/echo", func(r *Request) (*Response, error) {
		got = r
		return Empty()
	})
	e := echo.New()
	tree.Mount(e)

	rec := serve(e, http.MethodPut, "/echo?screen=hud", `{"name":"x"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{}", rec.Body.String())
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/echo", got.Path)
	assert.Equal(t, "hud", got.Query.Get("screen"))
	assert.JSONEq(t, `{"name":"x"}`, string(got.Body))
	assert.NotNil(t, got.Context)
}

func TestDispatch_PanicBecomes500(t *testing.T) {
	tree := New()
	tree.Get("/boom", func(*Request) (*Response, error) { panic("kaboom") })
	tree.Get("/fine", respond("fine"))
	e := echo.New()
	tree.Mount(e)

	rec := serve(e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", gjson.Get(rec.Body.String(), "type").String())
	assert.Contains(t, gjson.Get(rec.Body.String(), "error").String(), "kaboom")

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/fine", "").Code)
}

func TestDispatch_ErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"plain error keeps message", errors.New("Failed to get servers"), http.StatusInternalServerError, "Failed to get servers"},
		{"validation", apperrors.ValidationError("index out of range"), http.StatusBadRequest, "index out of range"},
		{"not found", apperrors.NotFoundError("theme not found"), http.StatusNotFound, "theme not found"},
		{"unsupported", apperrors.UnsupportedError("no theme supports the route inventory", nil), http.StatusUnprocessableEntity, "no theme supports the route inventory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := New()
			tree.Get("/x", func(*Request) (*Response, error) { return nil, tt.err })
			e := echo.New()
			tree.Mount(e)

			rec := serve(e, http.MethodGet, "/x", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, gjson.Get(rec.Body.String(), "error").String())
		})
	}
}

func TestDecode(t *testing.T) {
	type connect struct {
		Address string `json:"address"`
	}

	got, err := Decode[connect](&Request{Body: []byte(`{"address":"mc.example.net"}`)})
	require.NoError(t, err)
	assert.Equal(t, "mc.example.net", got.Address)

	_, err = Decode[connect](&Request{Body: []byte(`{`)})
	var se *apperrors.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, apperrors.TypeValidation, se.Type)

	_, err = Decode[connect](&Request{})
	require.ErrorAs(t, err, &se)
}

type fakeAssets struct {
	themes map[string]string
	active string
}

func (f fakeAssets) ThemeFolder(name string) (string, bool) {
	folder, ok := f.themes[name]
	return folder, ok
}

func (f fakeAssets) ActiveFolder() string { return f.active }

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
}

func staticServer(t *testing.T) (*echo.Echo, string) {
	t.Helper()
	root := t.TempDir()
	themes := filepath.Join(root, "themes")
	writeFile(t, filepath.Join(themes, "default", "index.html"), "<html>default</html>")
	writeFile(t, filepath.Join(themes, "neon", "index.html"), "<html>neon</html>")
	writeFile(t, filepath.Join(themes, "neon", "app.js"), "console.log('neon')")
	writeFile(t, filepath.Join(themes, "neon", "blob"), "\x89PNG\r\n\x1a\n0000")
	writeFile(t, filepath.Join(root, "secret.txt"), "top secret")

	assets := fakeAssets{
		themes: map[string]string{
			"default": filepath.Join(themes, "default"),
			"neon":    filepath.Join(themes, "neon"),
		},
		active: filepath.Join(themes, "neon"),
	}

	tree := New()
	tree.Get("/api/v1/ping", respond("pong"))
	tree.Fallback(Static(assets))
	e := echo.New()
	tree.Mount(e)
	return e, root
}

func TestStatic_ServesThemePrefixedFiles(t *testing.T) {
	e, _ := staticServer(t)

	rec := serve(e, http.MethodGet, "/default/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>default</html>", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")

	rec = serve(e, http.MethodGet, "/neon/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "javascript")
}

func TestStatic_FallsBackToActiveTheme(t *testing.T) {
	e, _ := staticServer(t)

	rec := serve(e, http.MethodGet, "/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log('neon')", rec.Body.String())
}

func TestStatic_SniffsUnknownExtensions(t *testing.T) {
	e, _ := staticServer(t)

	rec := serve(e, http.MethodGet, "/neon/blob", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
}

func TestStatic_MissingFileIs404(t *testing.T) {
	e, _ := staticServer(t)

	rec := serve(e, http.MethodGet, "/neon/missing.css", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", gjson.Get(rec.Body.String(), "type").String())
}

func TestStatic_RefusesTraversal(t *testing.T) {
	e, _ := staticServer(t)

	for _, target := range []string{"/../../secret.txt", "/neon/../../secret.txt", "/%2e%2e/%2e%2e/secret.txt"} {
		rec := serve(e, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.NotContains(t, rec.Body.String(), "top secret", target)
	}
}

func TestStatic_APIRoutesWinOverFallback(t *testing.T) {
	e, _ := staticServer(t)

	rec := serve(e, http.MethodGet, "/api/v1/ping", "")
	assert.Equal(t, "pong", gjson.Get(rec.Body.String(), "handler").String())
}

func TestWithin(t *testing.T) {
	root := filepath.FromSlash("/srv/themes/neon")

	assert.True(t, within(root, filepath.Join(root, "index.html")))
	assert.True(t, within(root, filepath.Join(root, "..data", "x")))
	assert.False(t, within(root, filepath.FromSlash("/srv/themes/secret")))
	assert.False(t, within(root, filepath.FromSlash("/srv/themes")))
}
