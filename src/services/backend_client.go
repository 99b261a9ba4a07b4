package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/clbanning/mxj/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/username/mgscheck/src/config"
	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/parsers"
)

// Backend service names.
const (
	S2AcctCommonGet      = "AcctCommonGet"
	S2GetAllBalances     = "GetAllBalances"
	S2GetPortfolioTotals = "GetPortfolioTotals"
	S2GetPortfolioInfo   = "GetPortfolioInfo"
	S2GetPositionLots    = "GetPositionLots"
	S2ViewPortfolio      = "ViewPortfolio"
	S2GetQuote           = "GetQuote"
	S2SPUserBalances     = "SPUserBalances"
)

// BackendOptions configures a BackendClient.
type BackendOptions struct {
	BaseURL      string
	StockPlanURL string
	Timeout      time.Duration
	RatePerSec   float64

	// Token settings enable OAuth2 client credentials when TokenURL is set.
	TokenURL     string
	ClientID     string
	ClientSecret string
}

func BackendOptionsFromConfig(cfg *config.AppConfig) BackendOptions {
	return BackendOptions{
		BaseURL:      cfg.BackendBaseURL,
		StockPlanURL: cfg.BackendStockPlanURL,
		Timeout:      cfg.BackendTimeout,
		RatePerSec:   cfg.BackendRatePerSec,
		TokenURL:     cfg.BackendTokenURL,
		ClientID:     cfg.BackendClientID,
		ClientSecret: cfg.BackendClientSecret,
	}
}

// BackendClient posts XML service requests to the backend and parses the
// XML or JSON payloads it returns.
type BackendClient struct {
	opts       BackendOptions
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewBackendClient(ctx context.Context, opts BackendOptions) *BackendClient {
	client := &http.Client{Timeout: opts.Timeout}
	if opts.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
		}
		client = cc.Client(context.WithValue(ctx, oauth2.HTTPClient, client))
		client.Timeout = opts.Timeout
		logger.L.Info("Backend client uses OAuth2 client credentials", "tokenURL", opts.TokenURL)
	}

	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	return &BackendClient{
		opts:       opts,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (b *BackendClient) url(service string) string {
	if service == S2SPUserBalances && b.opts.StockPlanURL != "" {
		return b.opts.StockPlanURL
	}
	return fmt.Sprintf("%s/s2/%s", b.opts.BaseURL, service)
}

// RequestBody renders the XML service request for service.
func RequestBody(service string, params map[string]any) ([]byte, error) {
	m := mxj.Map{"Service": service}
	for k, v := range params {
		m[k] = v
	}
	return m.Xml("ServiceRequest")
}

// Call posts a service request and returns the parsed payload. A single
// "...Response" root element is stripped.
func (b *BackendClient) Call(ctx context.Context, service string, params map[string]any) (indexer.Node, error) {
	log := logger.FromContext(ctx).With("s2Service", service)

	body, err := RequestBody(service, params)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", service, err)
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url(service), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", service, err)
	}
	req.Header.Set(headerContentType, "application/xml")

	log.Debug("Backend request", "url", req.URL.String(), "body", string(body))
	start := time.Now()
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w: %d", service, ErrUnexpectedStatus, resp.StatusCode)
	}

	p, err := parsers.GetParser(resp.Header.Get(headerContentType))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", service, err)
	}
	n, err := p.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", service, err)
	}
	log.Debug("Backend response parsed", "status", resp.StatusCode, "elapsed", time.Since(start))
	return parsers.Unwrap(n), nil
}

func (b *BackendClient) AcctCommonGet(ctx context.Context, userID string) (indexer.Node, error) {
	return b.Call(ctx, S2AcctCommonGet, map[string]any{"UserId": userID})
}

func (b *BackendClient) GetAllBalances(ctx context.Context, userID string) (indexer.Node, error) {
	return b.Call(ctx, S2GetAllBalances, map[string]any{"UserId": userID})
}

func (b *BackendClient) GetPortfolioTotals(ctx context.Context, userID, accountID string) (indexer.Node, error) {
	return b.Call(ctx, S2GetPortfolioTotals, map[string]any{"UserId": userID, "AcctNo": accountID})
}

func (b *BackendClient) SPUserBalances(ctx context.Context, employeeID string) (indexer.Node, error) {
	return b.Call(ctx, S2SPUserBalances, map[string]any{"EmployeeId": employeeID})
}

func (b *BackendClient) GetPortfolioInfo(ctx context.Context, userID, accountID string) (indexer.Node, error) {
	return b.Call(ctx, S2GetPortfolioInfo, map[string]any{"UserId": userID, "AcctNo": accountID})
}

func (b *BackendClient) GetPositionLots(ctx context.Context, userID, accountID, positionID string) (indexer.Node, error) {
	return b.Call(ctx, S2GetPositionLots, map[string]any{
		"UserId":     userID,
		"AcctNo":     accountID,
		"PositionId": positionID,
	})
}

func (b *BackendClient) ViewPortfolio(ctx context.Context, userID, portfolioID string) (indexer.Node, error) {
	return b.Call(ctx, S2ViewPortfolio, map[string]any{"UserId": userID, "PortfolioId": portfolioID})
}

func (b *BackendClient) GetQuote(ctx context.Context, symbol string) (indexer.Node, error) {
	return b.Call(ctx, S2GetQuote, map[string]any{"Symbol": symbol})
}

var _ Backend = (*BackendClient)(nil)
