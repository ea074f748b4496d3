package main

import (
	"encoding/json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

type testSite struct {
	srv    *httptest.Server
	client *http.Client
}

func newTestSite(t *testing.T, src ImageSource, store *Store, configure func(*Config)) *testSite {
	t.Helper()
	cfg := defaultConfig()
	if configure != nil {
		configure(&cfg)
	}
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)
	sessions := NewSessions(time.Hour, 16, func() *Form { return NewForm(src, metrics) })
	srv := httptest.NewServer(NewServer(&cfg, sessions, store, reg).Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testSite{srv: srv, client: &http.Client{Jar: jar}}
}

func (s *testSite) get(t *testing.T, path string) (int, string) {
	t.Helper()
	res, err := s.client.Get(s.srv.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

func (s *testSite) post(t *testing.T, values url.Values) (int, string) {
	t.Helper()
	res, err := s.client.PostForm(s.srv.URL+"/form", values)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

func (s *testSite) state(t *testing.T) FormView {
	t.Helper()
	status, body := s.get(t, "/state")
	require.Equal(t, http.StatusOK, status)
	var v FormView
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestPageListsBreeds(t *testing.T) {
	site := newTestSite(t, newFakeSource(), nil, nil)
	status, body := site.get(t, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `<option value="0">akita</option>`)
	assert.Contains(t, body, `<option value="1">bulldog</option>`)
	assert.NotContains(t, body, `name="sub_breed"`)

	v := site.state(t)
	assert.Equal(t, "Images DOG API | DOG's", v.Title)
	assert.Equal(t, 2, len(v.Breeds))
}

func TestFormFlow(t *testing.T) {
	src := newFakeSource()
	site := newTestSite(t, src, nil, nil)
	site.get(t, "/")

	status, _ := site.post(t, url.Values{"action": {"breed"}, "breed": {"1"}})
	require.Equal(t, http.StatusOK, status)
	v := site.state(t)
	assert.True(t, v.HasSubBreeds)
	assert.Equal(t, 20, v.AvailableImageCount)

	site.post(t, url.Values{"action": {"sub_breed"}, "breed": {"1"}, "sub_breed": {"1"}})
	v = site.state(t)
	assert.Equal(t, 5, v.AvailableImageCount)
	assert.True(t, v.SubBreeds[2].Selected)

	status, body := site.post(t, url.Values{"action": {"submit"}, "breed": {"1"}, "sub_breed": {"1"}, "number_image": {""}})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Number of images is required")
	assert.Equal(t, []string{"breeds", "bulldog", "bulldog/french"}, src.Calls())

	site.post(t, url.Values{"action": {"number_image"}, "number_image": {"3"}})
	status, body = site.post(t, url.Values{"action": {"submit"}})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `class="snack success"`)
	assert.Contains(t, body, src.images["bulldog/french"][2]+"?w=248&amp;fit=crop&amp;auto=format")

	v = site.state(t)
	assert.Equal(t, 3, len(v.Images))
	assert.Equal(t, Notification{Visible: true, Text: "success", Kind: NotifySuccess}, v.Notification)

	site.post(t, url.Values{"action": {"dismiss"}})
	assert.False(t, site.state(t).Notification.Visible)
}

func TestSessionsAreSeparate(t *testing.T) {
	src := newFakeSource()
	first := newTestSite(t, src, nil, nil)
	first.get(t, "/")
	first.post(t, url.Values{"action": {"breed"}, "breed": {"0"}})

	jar, _ := cookiejar.New(nil)
	second := &testSite{srv: first.srv, client: &http.Client{Jar: jar}}
	assert.Equal(t, 12, first.state(t).AvailableImageCount)
	assert.Equal(t, 0, second.state(t).AvailableImageCount)
}

func TestFormRejectsBadInput(t *testing.T) {
	site := newTestSite(t, newFakeSource(), nil, nil)
	site.get(t, "/")

	status, _ := site.post(t, url.Values{"action": {"breed"}, "breed": {"dog"}})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = site.post(t, url.Values{"action": {"breed"}, "breed": {"9"}})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = site.post(t, url.Values{"action": {"sub_breed"}, "sub_breed": {"0"}})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = site.post(t, url.Values{"action": {"fly"}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := site.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", body)

	res, err := site.client.Get(site.srv.URL + "/form")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestCatalogErrorShowsBanner(t *testing.T) {
	src := newFakeSource()
	src.catalogErr = &ApiError{Message: "error"}
	site := newTestSite(t, src, nil, nil)

	status, body := site.get(t, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `class="snack error"`)
	assert.NotContains(t, body, "akita")
	assert.Empty(t, site.state(t).Breeds)
}

func TestReloadRetriesCatalog(t *testing.T) {
	src := newFakeSource()
	src.catalogErr = &ApiError{Message: "error"}
	site := newTestSite(t, src, nil, nil)

	_, body := site.get(t, "/")
	assert.Contains(t, body, `class="snack error"`)
	assert.NotContains(t, body, "akita")

	src.setCatalogErr(nil)
	status, body := site.get(t, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `<option value="0">akita</option>`)
	assert.NotContains(t, body, `class="snack error"`)
	assert.Equal(t, []string{"breeds", "breeds"}, src.Calls())

	site.get(t, "/")
	assert.Equal(t, []string{"breeds", "breeds"}, src.Calls(), "A loaded catalog is kept for the session")
}

func TestBasicAuth(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddUser("rex", "woof", 1))
	site := newTestSite(t, newFakeSource(), store, func(cfg *Config) { cfg.Server.RequireAuth = true })

	status, _ := site.get(t, "/")
	assert.Equal(t, http.StatusUnauthorized, status)

	req, _ := http.NewRequest(http.MethodGet, site.srv.URL+"/", nil)
	req.SetBasicAuth("rex", "woof")
	res, err := site.client.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	status, _ = site.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, status, "Metrics stay open")
}

func TestMetricsEndpoint(t *testing.T) {
	site := newTestSite(t, newFakeSource(), nil, nil)
	site.get(t, "/")
	site.post(t, url.Values{"action": {"submit"}})

	status, body := site.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, strings.Contains(body, `dogimages_form_submissions_total{outcome="invalid"} 1`))
}
