package services

import (
	"context"

	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/mapping"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/response"
)

// Gateway issues the aggregation requests under test.
type Gateway interface {
	Login(ctx context.Context) error
	Session() *Session
	Post(ctx context.Context, call Call) (*response.Response, error)

	AccountList(ctx context.Context) (*response.Response, error)
	AccountOverview(ctx context.Context, accountUUID string) (*response.Response, error)
	CompleteView(ctx context.Context) (*response.Response, error)
	AllBrokerage(ctx context.Context) (*response.Response, error)
	IndividualBrokerage(ctx context.Context, accountUUID string) (*response.Response, error)
	TaxLots(ctx context.Context, accountUUID, positionID string) (*response.Response, error)
}

// Backend queries the authoritative account and portfolio services.
type Backend interface {
	mapping.AccountBackend

	GetPortfolioInfo(ctx context.Context, userID, accountID string) (indexer.Node, error)
	GetPositionLots(ctx context.Context, userID, accountID, positionID string) (indexer.Node, error)
	ViewPortfolio(ctx context.Context, userID, portfolioID string) (indexer.Node, error)
	GetQuote(ctx context.Context, symbol string) (indexer.Node, error)
}

// ReportNotifier delivers finished run reports.
type ReportNotifier interface {
	SendRunReport(ctx context.Context, report models.RunReport) error
}
