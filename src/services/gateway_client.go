package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/username/mgscheck/src/config"
	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/response"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrInvalidJSON      = errors.New("failed to parse response json")
	ErrNotLoggedIn      = errors.New("gateway session not established")
)

const (
	headerOrigin      = "Origin"
	headerContentType = "Content-Type"
	headerStk         = "stk1"
	headerAuthDetails = "x-et-auth-details"
	contentTypeJSON   = "application/json"

	maxErrorBody = 2048
)

// GatewayOptions configures a GatewayClient.
type GatewayOptions struct {
	BaseURL    string
	LoginURL   string
	Platform   string
	APIVersion int
	Timeout    time.Duration
	RatePerSec float64
	RateBurst  int

	UserName string
	Password string
	UserID   string
}

// GatewayOptionsFromConfig reads the gateway settings of cfg.
func GatewayOptionsFromConfig(cfg *config.AppConfig) GatewayOptions {
	return GatewayOptions{
		BaseURL:    cfg.GatewayBaseURL,
		LoginURL:   cfg.GatewayLoginURL,
		Platform:   cfg.GatewayPlatform,
		APIVersion: cfg.GatewayAPIVersion,
		Timeout:    cfg.GatewayTimeout,
		RatePerSec: cfg.GatewayRatePerSec,
		RateBurst:  cfg.GatewayRateBurst,
		UserName:   cfg.Username,
		Password:   cfg.Password,
		UserID:     cfg.UserID,
	}
}

// Call is one gateway request.
type Call struct {
	Service models.Service
	Body    map[string]any
	// APIVersion overrides the client default when non-zero.
	APIVersion int
	// Node adds the node authorization header.
	Node bool
	// ExpectedStatus defaults to 200.
	ExpectedStatus int
}

// ServiceMeta records the last outcome of an endpoint.
type ServiceMeta struct {
	Hits       int       `json:"hits"`
	LastStatus int       `json:"last_status"`
	LastError  string    `json:"last_error,omitempty"`
	LastAt     time.Time `json:"last_at"`
}

// GatewayClient talks to the mobile gateway over a cookie session.
type GatewayClient struct {
	opts       GatewayOptions
	httpClient *http.Client
	limiter    *rate.Limiter
	meta       *cache.Cache

	mu      sync.RWMutex
	session *Session
}

func NewGatewayClient(opts GatewayOptions) *GatewayClient {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}
	if opts.Platform == "" {
		opts.Platform = "etm"
	}
	if opts.APIVersion == 0 {
		opts.APIVersion = 1
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	burst := opts.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &GatewayClient{
		opts: opts,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: opts.Timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		meta:    cache.New(cache.NoExpiration, 0),
	}
}

// Session returns the current session, or nil before Login.
func (g *GatewayClient) Session() *Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// SetSession installs an already established session.
func (g *GatewayClient) SetSession(s *Session) {
	g.mu.Lock()
	g.session = s
	g.mu.Unlock()
}

func (g *GatewayClient) loginURL() string {
	if g.opts.LoginURL != "" {
		return g.opts.LoginURL
	}
	return fmt.Sprintf("%s/phx/%s/services/v1/user/login", g.opts.BaseURL, g.opts.Platform)
}

// Login authenticates the configured user. Session cookies are kept in the
// client's jar and the returned token is sent with every later request.
func (g *GatewayClient) Login(ctx context.Context) error {
	if g.opts.UserName == "" || g.opts.Password == "" {
		return errors.New("gateway login requires a username and password")
	}
	body, err := json.Marshal(map[string]any{
		"value": map[string]string{"userId": g.opts.UserName, "password": g.opts.Password},
	})
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info("Logging in to gateway", "user", g.opts.UserName)

	raw, status, err := g.do(ctx, g.loginURL(), body, g.baseHeaders())
	if err != nil {
		return fmt.Errorf("gateway login: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("gateway login: %w: %d", ErrUnexpectedStatus, status)
	}
	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("gateway login: %w", ErrInvalidJSON)
	}
	token := gjson.GetBytes(raw, "token").String()
	if token == "" {
		token = gjson.GetBytes(raw, "mobile_response.token").String()
	}

	s, err := NewSession(token, g.opts.UserName, g.opts.UserID)
	if err != nil {
		return fmt.Errorf("gateway login: %w", err)
	}
	g.SetSession(s)
	log.Info("Gateway session established", "userId", s.UserID)
	return nil
}

// URL builds the endpoint URL of svc:
// {base}/phx/{platform}/services/v{n}/{account|portfolio}/{service}.
func (g *GatewayClient) URL(svc models.Service, apiVersion int) string {
	if apiVersion == 0 {
		apiVersion = g.opts.APIVersion
	}
	return fmt.Sprintf("%s/phx/%s/services/v%d/%s/%s", g.opts.BaseURL, g.opts.Platform, apiVersion, group(svc), svc)
}

func group(svc models.Service) string {
	if svc.IsPortfolio() {
		return "portfolio"
	}
	return "account"
}

func (g *GatewayClient) baseHeaders() http.Header {
	h := http.Header{}
	h.Set(headerOrigin, g.opts.BaseURL)
	h.Set(headerContentType, contentTypeJSON)
	return h
}

// Headers builds the request headers of call.
func (g *GatewayClient) Headers(call Call) (http.Header, error) {
	h := g.baseHeaders()
	s := g.Session()
	if s != nil && s.Token != "" {
		h.Set(headerStk, s.Token)
	}
	if call.Node {
		if s == nil {
			return nil, ErrNotLoggedIn
		}
		details, err := s.AuthDetails()
		if err != nil {
			return nil, err
		}
		h.Set(headerAuthDetails, details)
	}
	return h, nil
}

// Post sends call and returns the parsed mobile response. The status must
// match call.ExpectedStatus and the body must be a gateway JSON document.
func (g *GatewayClient) Post(ctx context.Context, call Call) (*response.Response, error) {
	url := g.URL(call.Service, call.APIVersion)
	log := logger.FromContext(ctx).With("service", string(call.Service), "url", url)

	body := call.Body
	if body == nil {
		body = map[string]any{}
	}
	payload, err := json.Marshal(map[string]any{"value": body})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", call.Service, err)
	}
	headers, err := g.Headers(call)
	if err != nil {
		return nil, err
	}

	log.Info("Gateway request starts")
	log.Debug("Prepared gateway request", "body", string(payload))

	raw, status, err := g.do(ctx, url, payload, headers)
	resp, err := g.check(call, url, payload, raw, status, err)
	g.record(call, status, err)
	if err != nil {
		log.Error("Gateway request failed", "status", status, "error", err)
		return nil, err
	}
	log.Info("Gateway request ends", "status", status, "views", resp.ViewTypes(), "references", resp.ReferenceTypes())
	return resp, nil
}

func (g *GatewayClient) check(call Call, url string, payload, raw []byte, status int, err error) (*response.Response, error) {
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", call.Service, err)
	}
	want := call.ExpectedStatus
	if want == 0 {
		want = http.StatusOK
	}
	if status != want {
		return nil, fmt.Errorf("%w: actual %d, expected %d\nURL: %s\nRequest body: %s\nResponse text:\n%s",
			ErrUnexpectedStatus, status, want, url, payload, truncate(raw))
	}
	resp, err := response.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w\nRequest: %s\nResponse[%d]: %s", ErrInvalidJSON, err, payload, status, truncate(raw))
	}
	return resp, nil
}

func (g *GatewayClient) do(ctx context.Context, url string, body []byte, headers http.Header) ([]byte, int, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header = headers

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}
	return raw, resp.StatusCode, nil
}

func metaKey(call Call, defaultVersion int) string {
	v := call.APIVersion
	if v == 0 {
		v = defaultVersion
	}
	return fmt.Sprintf("v%d-%s/%s", v, group(call.Service), call.Service)
}

func (g *GatewayClient) record(call Call, status int, err error) {
	key := metaKey(call, g.opts.APIVersion)
	m := ServiceMeta{}
	if v, found := g.meta.Get(key); found {
		m = v.(ServiceMeta)
	}
	m.Hits++
	m.LastStatus = status
	m.LastError = ""
	if err != nil {
		m.LastError = err.Error()
	}
	m.LastAt = time.Now()
	g.meta.Set(key, m, cache.NoExpiration)
}

// Metadata returns the recorded outcome of svc at the client's API version.
func (g *GatewayClient) Metadata(svc models.Service) (ServiceMeta, bool) {
	v, found := g.meta.Get(metaKey(Call{Service: svc}, g.opts.APIVersion))
	if !found {
		return ServiceMeta{}, false
	}
	return v.(ServiceMeta), true
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}

func (g *GatewayClient) AccountList(ctx context.Context) (*response.Response, error) {
	return g.Post(ctx, Call{Service: models.ServiceAccountList})
}

func (g *GatewayClient) AccountOverview(ctx context.Context, accountUUID string) (*response.Response, error) {
	return g.Post(ctx, Call{Service: models.ServiceAccountOverview, Body: map[string]any{
		"accountUuid":   accountUUID,
		"extendedHours": false,
	}})
}

func (g *GatewayClient) CompleteView(ctx context.Context) (*response.Response, error) {
	return g.Post(ctx, Call{Service: models.ServiceCompleteView})
}

func (g *GatewayClient) AllBrokerage(ctx context.Context) (*response.Response, error) {
	return g.Post(ctx, Call{Service: models.ServiceAllBrokerage, Body: map[string]any{
		"enableNewExperience": false,
	}})
}

func (g *GatewayClient) IndividualBrokerage(ctx context.Context, accountUUID string) (*response.Response, error) {
	return g.Post(ctx, Call{Service: models.ServiceIndividual, Body: map[string]any{
		"accountUuid":         accountUUID,
		"enableNewExperience": false,
	}})
}

func (g *GatewayClient) TaxLots(ctx context.Context, accountUUID, positionID string) (*response.Response, error) {
	return g.Post(ctx, Call{Service: models.ServiceTaxLots, Body: map[string]any{
		"accountUuid": accountUUID,
		"positionId":  positionID,
	}})
}

var _ Gateway = (*GatewayClient)(nil)
