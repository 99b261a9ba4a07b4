package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/security"
	"github.com/username/mgscheck/src/services"
)

type fakeRunner struct {
	reports services.ReportService
	got     []models.Service
	err     error
}

func (f *fakeRunner) Run(_ context.Context, svcs ...models.Service) (models.RunReport, error) {
	f.got = svcs
	if f.err != nil {
		return models.RunReport{}, f.err
	}
	r := models.RunReport{ID: "run-7", Flows: []models.FlowResult{{Service: models.ServiceCompleteView, Passed: true}}}
	f.reports.Put(r)
	return r, nil
}

type api struct {
	srv     *httptest.Server
	token   string
	reports services.ReportService
	runner  *fakeRunner
}

func newAPI(t *testing.T, limiter *rate.Limiter) *api {
	auth, err := security.NewAuthService("0123456789abcdef0123456789abcdef", time.Minute)
	require.NoError(t, err)
	token, err := auth.GenerateToken("qa-bot")
	require.NoError(t, err)

	reports := services.NewReportService(time.Minute)
	runner := &fakeRunner{reports: reports}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	srv := httptest.NewServer(NewRouter(NewReportHandler(reports, runner), auth, limiter))
	t.Cleanup(srv.Close)
	return &api{srv: srv, token: token, reports: reports, runner: runner}
}

func (a *api) do(t *testing.T, method, path, body string, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+a.token)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestReports_Latest(t *testing.T) {
	a := newAPI(t, nil)

	resp := a.do(t, http.MethodGet, "/api/reports/latest", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	a.reports.Put(models.RunReport{ID: "run-1"})
	resp = a.do(t, http.MethodGet, "/api/reports/latest", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.RunReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "run-1", got.ID)

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	resp = a.do(t, http.MethodGet, "/api/reports/latest", "", map[string]string{"If-None-Match": `"stale", ` + etag})
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
}

func TestReports_ByID(t *testing.T) {
	a := newAPI(t, nil)
	a.reports.Put(models.RunReport{ID: "run-1"})

	resp := a.do(t, http.MethodGet, "/api/reports/run-1", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp = a.do(t, http.MethodGet, "/api/reports/run-2", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "run-2")
}

func TestRuns_Start(t *testing.T) {
	a := newAPI(t, nil)

	resp := a.do(t, http.MethodPost, "/api/runs", `{"services":["completeView","ACCOUNTLIST"]}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []models.Service{models.ServiceCompleteView, models.ServiceAccountList}, a.runner.got)

	resp = a.do(t, http.MethodGet, "/api/reports/run-7", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/api/runs", "", nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, a.runner.got, "an empty body runs every service")
}

func TestRuns_BadRequests(t *testing.T) {
	a := newAPI(t, nil)

	tests := map[string]string{
		"malformed json":  `{"services":`,
		"unknown service": `{"services":["watchlist"]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			resp := a.do(t, http.MethodPost, "/api/runs", body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	a.runner.err = errors.New("gateway login: bad credentials")
	resp := a.do(t, http.MethodPost, "/api/runs", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestAuthMiddleware(t *testing.T) {
	a := newAPI(t, nil)

	tests := map[string]struct {
		header string
		want   int
	}{
		"missing":  {header: "", want: http.StatusUnauthorized},
		"empty":    {header: "Bearer ", want: http.StatusUnauthorized},
		"invalid":  {header: "Bearer nope", want: http.StatusUnauthorized},
		"valid":    {header: "Bearer " + a.token, want: http.StatusNotFound},
		"bare jwt": {header: a.token, want: http.StatusNotFound},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, a.srv.URL+"/api/reports/latest", nil)
			require.NoError(t, err)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, test.want, resp.StatusCode)
		})
	}

	resp, err := http.Get(a.srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "health needs no token")
}

func TestRateLimit(t *testing.T) {
	a := newAPI(t, rate.NewLimiter(rate.Every(time.Hour), 2))

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, a.do(t, http.MethodGet, "/api/health", "", nil).StatusCode)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}
