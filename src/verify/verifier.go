package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/username/mgscheck/src/compare"
	"github.com/username/mgscheck/src/config"
	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/mapping"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/response"
	"github.com/username/mgscheck/src/schema"
	"github.com/username/mgscheck/src/services"
)

// Options tune the checks of a Verifier.
type Options struct {
	Compare          compare.Options
	SkipAccountIDs   []string
	LotsMaxPositions int
}

// OptionsFromConfig reads the verification settings of cfg.
func OptionsFromConfig(cfg *config.AppConfig) Options {
	opts := Options{Compare: compare.DefaultOptions(), LotsMaxPositions: 1}
	if cfg == nil {
		return opts
	}
	opts.Compare.Tolerance = cfg.ValueTolerance
	if len(cfg.AccountTypeAliases) > 0 {
		opts.Compare.Aliases = cfg.AccountTypeAliases
	}
	opts.SkipAccountIDs = cfg.SkipAccountIDs
	if cfg.LotsMaxPositions > 0 {
		opts.LotsMaxPositions = cfg.LotsMaxPositions
	}
	return opts
}

func (o Options) skipped(accountID string) bool {
	for _, id := range o.SkipAccountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

// Verifier runs service flows against a gateway and checks them with
// records mapped from the backend.
type Verifier struct {
	gateway  services.Gateway
	backend  services.Backend
	registry *schema.Registry
	opts     Options
	coverage *Coverage
}

func NewVerifier(gateway services.Gateway, backend services.Backend, opts Options) *Verifier {
	return &Verifier{
		gateway:  gateway,
		backend:  backend,
		registry: schema.Default(),
		opts:     opts,
		coverage: NewCoverage(),
	}
}

// WithRegistry replaces the default schema registry.
func (v *Verifier) WithRegistry(r *schema.Registry) *Verifier {
	v.registry = r
	return v
}

func (v *Verifier) Coverage() *Coverage { return v.coverage }

// flow carries the state of one service verification: the failure
// context, the account map and the portfolios fetched so far.
type flow struct {
	*Verifier
	svc        models.Service
	c          *compare.Context
	log        *slog.Logger
	userID     string
	accounts   *mapping.AccountMap
	portfolios map[string]*mapping.PositionMap
	checked    int
}

func (v *Verifier) newFlow(ctx context.Context, svc models.Service) (*flow, error) {
	sess := v.gateway.Session()
	if sess == nil {
		return nil, services.ErrNotLoggedIn
	}
	log := logger.FromContext(ctx).With("service", string(svc))
	return &flow{
		Verifier:   v,
		svc:        svc,
		c:          compare.NewContext(string(svc), v.opts.Compare).WithLogger(log),
		log:        log,
		userID:     sess.UserID,
		accounts:   mapping.NewAccountMap(v.backend, sess.UserID, v.registry),
		portfolios: map[string]*mapping.PositionMap{},
	}, nil
}

// Verify runs the flow of svc and reports its outcome. Request errors end
// the flow and are reported in FlowResult.Error.
func (v *Verifier) Verify(ctx context.Context, svc models.Service) models.FlowResult {
	start := time.Now()
	res := models.FlowResult{Service: svc}

	f, err := v.newFlow(ctx, svc)
	if err != nil {
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}
	f.log.Info("Flow started")

	switch svc {
	case models.ServiceAccountList:
		err = f.accountList(ctx)
	case models.ServiceAccountOverview:
		err = f.accountOverview(ctx)
	case models.ServiceCompleteView:
		err = f.completeView(ctx)
	case models.ServiceAllBrokerage:
		err = f.allBrokerage(ctx)
	case models.ServiceIndividual:
		err = f.individual(ctx)
	case models.ServiceTaxLots:
		err = f.taxLots(ctx)
	default:
		err = fmt.Errorf("no flow for service %q", svc)
	}

	res.Failures = f.c.Failures()
	res.Accounts = f.checked
	res.Passed = err == nil && f.c.Passed()
	if err != nil {
		res.Error = err.Error()
	}
	res.Duration = time.Since(start)

	if res.Passed {
		f.log.Info("Flow finished", "accounts", res.Accounts, "failures", 0)
	} else {
		f.log.Warn("Flow finished with failures", "accounts", res.Accounts, "failures", len(res.Failures), "hard", res.HardFailures(), "error", res.Error)
	}
	return res
}

func (f *flow) portfolio(ctx context.Context, accountID string) (*mapping.PositionMap, error) {
	if pm, ok := f.portfolios[accountID]; ok {
		return pm, nil
	}
	info, err := f.backend.GetPortfolioInfo(ctx, f.userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetPortfolioInfo: %w", err)
	}
	pm, err := mapping.NewPositionMap(info)
	if err != nil {
		return nil, err
	}
	f.portfolios[accountID] = pm
	return pm, nil
}

// checkAccountValues compares every reference account with the account
// mapped from the backend for this service.
func (f *flow) checkAccountValues(ctx context.Context, resp *response.Response) {
	for _, t := range f.registry.AccountTypes(f.svc) {
		for _, account := range AccountsOfType(resp, t) {
			id := account.String("accountId")
			if f.opts.skipped(id) || IsLinkedStockPlan(resp, account) {
				f.log.Debug("Account skipped", "accountId", id)
				continue
			}
			s2, err := f.accounts.Account(ctx, account.String("accountUuid"), f.svc)
			if err != nil {
				f.c.Hard(err, account)
				continue
			}
			compare.CheckValues(f.c, account, s2)
			coverKeys(f.coverage, f.svc, schema.RefAccounts, s2)
			f.checked++
		}
	}
}

// checkPositionValues compares reference positions with the positions of
// their account's portfolio. The backend knows no account uuid; uuids are
// checked by CheckUUIDs.
func (f *flow) checkPositionValues(ctx context.Context, resp *response.Response) {
	positions := resp.References(schema.RefPositions)
	for _, p := range positions {
		pm, err := f.portfolio(ctx, indexer.IDString(p["accountId"]))
		if err != nil {
			f.c.Hard(err, p)
			continue
		}
		s2, err := pm.Position(indexer.IDString(p["positionId"]))
		if err != nil {
			f.c.Hard(err, p)
			continue
		}
		delete(s2, "accountUuid")
		compare.CheckValues(f.c, p, s2)
		coverKeys(f.coverage, f.svc, schema.RefPositions, s2)
	}
	f.log.Debug("Positions checked", "positions", len(positions))
}

// checkInstrumentValues compares reference instruments with the backend
// quote of their position. The account of an instrument is the account of
// its position, or fallback when the response carries no such position.
func (f *flow) checkInstrumentValues(ctx context.Context, resp *response.Response, fallback string) {
	accountOf := map[string]string{}
	for _, p := range resp.References(schema.RefPositions) {
		accountOf[indexer.IDString(p["positionId"])] = indexer.IDString(p["accountId"])
	}
	for _, i := range resp.References(schema.RefInstruments) {
		positionID := indexer.IDString(i["positionId"])
		accountID, ok := accountOf[positionID]
		if !ok {
			accountID = fallback
		}
		if accountID == "" {
			f.c.Fail(models.FailureStructural, "no account found for instrument position "+positionID, i)
			continue
		}
		pm, err := f.portfolio(ctx, accountID)
		if err != nil {
			f.c.Hard(err, i)
			continue
		}
		s2, err := pm.Instrument(positionID)
		if err != nil {
			f.c.Hard(err, i)
			continue
		}
		compare.CheckValues(f.c, i, s2)
		coverKeys(f.coverage, f.svc, schema.RefInstruments, s2)
	}
}

// checkTaxLotValues compares the reference tax lots of one position with
// the backend lots.
func (f *flow) checkTaxLotValues(ctx context.Context, resp *response.Response, accountID, positionID string) {
	lots := resp.References(schema.RefTaxLots)
	if len(lots) == 0 {
		return
	}
	raw, err := f.backend.GetPositionLots(ctx, f.userID, accountID, positionID)
	if err != nil {
		f.c.Hard(fmt.Errorf("GetPositionLots: %w", err), nil)
		return
	}
	lm, err := mapping.NewTaxLotMap(raw)
	if err != nil {
		f.c.Hard(err, nil)
		return
	}
	for _, lot := range lots {
		s2, err := lm.TaxLot(indexer.IDString(lot["positionLotId"]))
		if err != nil {
			f.c.Hard(err, lot)
			continue
		}
		compare.CheckValues(f.c, lot, s2)
		coverKeys(f.coverage, f.svc, schema.RefTaxLots, s2)
	}
	f.log.Debug("Tax lots checked", "positionId", positionID, "lots", len(lots))
}
