package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docrest/internal/intercept"
	"github.com/roach88/docrest/internal/resource"
	"github.com/roach88/docrest/internal/rest"
	"github.com/roach88/docrest/internal/store"
)

type testServer struct {
	srv   *Server
	svc   *rest.Service
	users store.Model
}

func testTemplates() *template.Template {
	t := template.Must(template.New("resource_users").Parse(
		`{{range .flash}}[{{.Kind}}: {{.Message}}]{{end}}{{range .docs}}{{.name}};{{end}}`))
	template.Must(t.New("resource_user").Parse(`{{.doc.name}}`))
	return t
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemory(store.WithMemoryIDs(store.NewFixedGenerator()))
	svc := rest.NewService(resource.NewRegistry(resource.BuiltinDefaults()))

	users := mem.Collection("users")
	_, err := svc.AddResource("user", users, nil)
	require.NoError(t, err)

	xhr := true
	_, err = svc.AddResource("note", mem.Collection("notes"), &resource.Options{EnableXHR: &xhr})
	require.NoError(t, err)

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &testServer{srv: New(svc, opts), svc: svc, users: users}
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) seed(t *testing.T, values ...map[string]any) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, ts.users.Save(context.Background(), ts.users.New(v)))
	}
}

func jsonRequest(t *testing.T, method, target string, values map[string]any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"newResource": values})
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func flashCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == FlashCookie {
			return c
		}
	}
	return nil
}

func TestServer_List(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})
	ts.seed(t, map[string]any{"name": "ada"}, map[string]any{"name": "bob"})

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/users", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada;bob;", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestServer_UnknownResource(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})

	for _, target := range []string{"/ghosts", "/ghosts/1"} {
		rec := ts.do(t, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestServer_CreateJSONThenFlashOnList(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/users", map[string]any{"name": "ada"}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users", rec.Header().Get("Location"))
	cookie := flashCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, []FlashMessage{{Kind: rest.FlashSuccess, Message: "Successfully created the record."}},
		DecodeFlash(cookie.Value))

	list := httptest.NewRequest(http.MethodGet, "/users", nil)
	list.AddCookie(cookie)
	rec = ts.do(t, list)

	assert.Equal(t, "[success: Successfully created the record.]ada;", rec.Body.String())
	cleared := flashCookie(rec)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestServer_CreateForm(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})

	rec := ts.do(t, formRequest(http.MethodPost, "/users", url.Values{"newResource[name]": {"ada"}}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	doc, err := ts.users.FindOne(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "ada", doc.Fields["name"])
}

func TestServer_CreateNothingSubmitted(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})

	rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/users", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unable to insert the record: Nothing submitted.", rec.Body.String())
}

func TestServer_CreateVetoedByInterceptor(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})
	require.NoError(t, ts.svc.AddInterceptor("users", intercept.Func(func(info *intercept.Info, env intercept.Env) error {
		assert.NotNil(t, env.Request)
		return errors.New("denied")
	}), intercept.EventPost))

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/users", map[string]any{"name": "ada"}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Unable to insert the record: denied", rec.Body.String())
}

func TestServer_Fetch(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})
	ts.seed(t, map[string]any{"name": "ada"})

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/users/doc-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada", rec.Body.String())
}

func TestServer_FetchMissingRedirects(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/users/nope", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users", rec.Header().Get("Location"))
	cookie := flashCookie(rec)
	require.NotNil(t, cookie)
	flashes := DecodeFlash(cookie.Value)
	require.Len(t, flashes, 1)
	assert.Equal(t, rest.FlashError, flashes[0].Kind)
}

func TestServer_Update(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})
	ts.seed(t, map[string]any{"name": "ada"})

	rec := ts.do(t, jsonRequest(t, http.MethodPut, "/users/doc-1", map[string]any{"name": "eve"}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users/doc-1", rec.Header().Get("Location"))
	cookie := flashCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, "Successfully updated the record.", DecodeFlash(cookie.Value)[0].Message)

	doc, err := ts.users.FindOne(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "eve", doc.Fields["name"])
}

func TestServer_Delete(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})
	ts.seed(t, map[string]any{"name": "ada"})

	rec := ts.do(t, httptest.NewRequest(http.MethodDelete, "/users/doc-1", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users", rec.Header().Get("Location"))
	_, err := ts.users.FindOne(context.Background(), "doc-1")
	assert.True(t, store.IsNotFound(err))
}

func TestServer_MethodOverride(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})
	ts.seed(t, map[string]any{"name": "ada"}, map[string]any{"name": "bob"})

	rec := ts.do(t, formRequest(http.MethodPost, "/users/doc-1", url.Values{
		MethodField:         {"PUT"},
		"newResource[name]": {"eve"},
	}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	doc, err := ts.users.FindOne(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "eve", doc.Fields["name"])

	rec = ts.do(t, formRequest(http.MethodPost, "/users/doc-2", url.Values{MethodField: {"delete"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	_, err = ts.users.FindOne(context.Background(), "doc-2")
	assert.True(t, store.IsNotFound(err))

	rec = ts.do(t, formRequest(http.MethodPost, "/users/doc-1", url.Values{}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_XHR(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})

	req := jsonRequest(t, http.MethodPost, "/notes", map[string]any{"text": "hi"})
	req.Header.Set(XHRHeader, "XMLHttpRequest")
	rec := ts.do(t, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"doc":{"_id":"doc-1","text":"hi"}}`, rec.Body.String())
	assert.Nil(t, flashCookie(rec))

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set(XHRHeader, "XMLHttpRequest")
	rec = ts.do(t, req)

	assert.JSONEq(t, `{"docs":[{"_id":"doc-1","text":"hi"}]}`, rec.Body.String())
}

func TestServer_XHRError(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})

	req := httptest.NewRequest(http.MethodPost, "/notes", nil)
	req.Header.Set(XHRHeader, "XMLHttpRequest")
	rec := ts.do(t, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"Unable to insert the record: Nothing submitted."}`, rec.Body.String())
}

func TestServer_RenderWithoutTemplatesWritesJSON(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.seed(t, map[string]any{"name": "ada"})

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/users", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"docs":[{"_id":"doc-1","name":"ada"}],"site":"users-list","title":"Users"}`, rec.Body.String())
}

func TestServer_CustomErrorHandler(t *testing.T) {
	var got error
	ts := newTestServer(t, Options{ErrorHandler: func(c *gin.Context, err error) {
		got = err
		c.String(http.StatusTeapot, "custom")
	}})

	rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/users", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.True(t, rest.IsValidationError(got))
}

func TestServer_URLPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mem := store.NewMemory()
	svc := rest.NewService(resource.NewRegistry(resource.BuiltinDefaults()), rest.WithURLPath("/api"))
	_, err := svc.AddResource("user", mem.Collection("users"), nil)
	require.NoError(t, err)
	srv := New(svc, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/api/users", map[string]any{"a": 1}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/api/users", rec.Header().Get("Location"))
}

func TestRouteTable(t *testing.T) {
	routes := RouteTable("/api/")

	require.Len(t, routes, 6)
	assert.Equal(t, Route{Method: http.MethodGet, Path: "/api/:resource", Action: ActionList}, routes[0])
	assert.Equal(t, Route{Method: http.MethodDelete, Path: "/api/:resource/:id", Action: ActionDelete, Entity: true}, routes[4])
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &rest.ActionError{Action: rest.ActionInsert, Err: &rest.ValidationError{Message: "x"}}, http.StatusBadRequest},
		{"not found", store.Wrap("find_one", "users", store.ErrNotFound), http.StatusNotFound},
		{"timeout", &rest.ActionError{Action: rest.ActionSave, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestDecodeFlash_Malformed(t *testing.T) {
	assert.Nil(t, DecodeFlash("%%%"))
	assert.Nil(t, DecodeFlash("bm90IGpzb24"))
}

func TestServer_XHRInterceptorErrorShowsCause(t *testing.T) {
	ts := newTestServer(t, Options{Templates: testTemplates()})
	require.NoError(t, ts.svc.AddInterceptor("note", intercept.Func(func(info *intercept.Info, env intercept.Env) error {
		return errors.New("text too short")
	}), intercept.EventPost))

	req := jsonRequest(t, http.MethodPost, "/notes", map[string]any{"text": "x"})
	req.Header.Set(XHRHeader, "XMLHttpRequest")
	rec := ts.do(t, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"Unable to insert the record: text too short"}`, rec.Body.String())
}
