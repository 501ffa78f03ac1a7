package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type capturedRequest struct {
	method string
	path   string
	query  string
	body   string
}

func newFakeBridge(t *testing.T, status int, response string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var got []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, capturedRequest{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(body)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func runCmd(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--url", url}, args...))
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestCommands_SendExpectedRequests(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{"list servers", []string{"servers"}, http.MethodGet, "/api/v1/client/servers", ""},
		{"connect", []string{"servers", "connect", "hub.example"}, http.MethodPost, "/api/v1/client/servers/connect", `{"address":"hub.example"}`},
		{"add", []string{"servers", "add", "Hub", "hub.example"}, http.MethodPut, "/api/v1/client/servers/add", `{"name":"Hub","address":"hub.example"}`},
		{"remove", []string{"servers", "remove", "2"}, http.MethodDelete, "/api/v1/client/servers/remove", `{"index":2}`},
		{"edit", []string{"servers", "edit", "0", "Hub", "hub2"}, http.MethodPut, "/api/v1/client/servers/edit", `{"index":0,"name":"Hub","address":"hub2"}`},
		{"swap", []string{"servers", "swap", "0", "1"}, http.MethodPost, "/api/v1/client/servers/swap", `{"from":0,"to":1}`},
		{"order", []string{"servers", "order", "2", "0", "1"}, http.MethodPost, "/api/v1/client/servers/order", `{"order":[2,0,1]}`},
		{"theme set", []string{"theme", "set", "neon"}, http.MethodPut, "/api/v1/client/theme/set", `{"name":"neon"}`},
		{"theme unset", []string{"theme", "unset"}, http.MethodPut, "/api/v1/client/theme/unset", ""},
		{"component add", []string{"components", "add", "text", "--name", "Clock"}, http.MethodPut, "/api/v1/client/components/add", `{"type":"text","name":"Clock"}`},
		{"component clear", []string{"components", "clear"}, http.MethodPost, "/api/v1/client/components/clear", ""},
		{"override", []string{"integration", "override", "https://example.com"}, http.MethodPost, "/api/v1/client/integration/override", `{"url":"https://example.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, got := newFakeBridge(t, http.StatusOK, `{}`)

			_, err := runCmd(t, srv.URL, tt.args...)
			require.NoError(t, err)

			require.Len(t, *got, 1)
			req := (*got)[0]
			assert.Equal(t, tt.wantMethod, req.method)
			assert.Equal(t, tt.wantPath, req.path)
			if tt.wantBody == "" {
				assert.Empty(t, req.body)
			} else {
				assert.JSONEq(t, tt.wantBody, req.body)
			}
		})
	}
}

func TestThemeRoute_Query(t *testing.T) {
	srv, got := newFakeBridge(t, http.StatusOK, `{"url":"http://127.0.0.1:15000/default/#/title?static"}`)

	out, err := runCmd(t, srv.URL, "theme", "route", "title", "--static")
	require.NoError(t, err)

	assert.Equal(t, "screen=title&static", (*got)[0].query)
	assert.Equal(t, "http://127.0.0.1:15000/default/#/title?static", gjson.Get(out, "url").String())
}

func TestCommands_PrintIndentedJSON(t *testing.T) {
	srv, _ := newFakeBridge(t, http.StatusOK, `[{"name":"Hub","index":0}]`)

	out, err := runCmd(t, srv.URL, "servers")
	require.NoError(t, err)

	assert.Contains(t, out, "\n  {\n")
	assert.Equal(t, "Hub", gjson.Get(out, "0.name").String())
}

func TestCommands_ReportAPIErrors(t *testing.T) {
	srv, _ := newFakeBridge(t, http.StatusBadRequest, `{"error":"index out of range","type":"validation"}`)

	_, err := runCmd(t, srv.URL, "servers", "remove", "9")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "validation", apiErr.Type)
	assert.Equal(t, "bridge returned 400 (validation): index out of range", err.Error())
}

func TestCommands_RejectBadIndex(t *testing.T) {
	srv, got := newFakeBridge(t, http.StatusOK, `{}`)

	_, err := runCmd(t, srv.URL, "servers", "swap", "a", "1")
	require.Error(t, err)
	assert.Empty(t, *got)
}

func TestEventsURL(t *testing.T) {
	u, err := newClient("http://127.0.0.1:15000/").eventsURL(nil)
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:15000/api/v1/events", u)

	u, err = newClient("https://bridge.local").eventsURL([]string{"themeChanged", "session"})
	require.NoError(t, err)
	assert.Equal(t, "wss://bridge.local/api/v1/events?events=themeChanged%2Csession", u)

	_, err = newClient("127.0.0.1:15000").eventsURL(nil)
	assert.Error(t, err)
}
