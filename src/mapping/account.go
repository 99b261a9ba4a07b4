package mapping

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/schema"
	"github.com/username/mgscheck/src/uuidcodec"
	"github.com/username/mgscheck/src/utils"
)

// AccountBackend is the set of backend calls the account mapper needs.
type AccountBackend interface {
	AcctCommonGet(ctx context.Context, userID string) (indexer.Node, error)
	GetAllBalances(ctx context.Context, userID string) (indexer.Node, error)
	GetPortfolioTotals(ctx context.Context, userID, accountID string) (indexer.Node, error)
	SPUserBalances(ctx context.Context, employeeID string) (indexer.Node, error)
}

// AccountMap builds reference accounts for one user. Backend responses are
// fetched on first use and memoized for the lifetime of the map. An
// AccountMap is not safe for concurrent use.
type AccountMap struct {
	backend  AccountBackend
	userID   string
	registry *schema.Registry
	log      *slog.Logger

	descriptions map[string]indexer.Node
	balances     map[string]indexer.Node
	totals       map[string]indexer.Node
	stockPlan    map[string]models.Record
}

func NewAccountMap(backend AccountBackend, userID string, registry *schema.Registry) *AccountMap {
	if registry == nil {
		registry = schema.Default()
	}
	return &AccountMap{
		backend:   backend,
		userID:    userID,
		registry:  registry,
		log:       logger.L.With("userId", userID),
		totals:    make(map[string]indexer.Node),
		stockPlan: make(map[string]models.Record),
	}
}

// AccountTypeOf picks the schema account type for a decoded uuid.
func AccountTypeOf(acct uuidcodec.AccountUUID) models.AccountType {
	switch {
	case acct.IsStockPlan():
		return models.AccountStockPlan
	case acct.IsBank():
		return models.AccountBank
	}
	return models.AccountBrokerage
}

// Account builds the reference account for uuid as svc should return it.
func (m *AccountMap) Account(ctx context.Context, uuid string, svc models.Service) (models.Record, error) {
	acct, err := uuidcodec.ParseAccountUUID(uuid)
	if err != nil {
		return nil, err
	}
	desc, err := m.registry.Get(svc, AccountTypeOf(acct))
	if err != nil {
		return nil, err
	}

	account, err := m.Description(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if desc.NeedsBalances() {
		bal, err := m.Balance(ctx, uuid)
		if err != nil {
			return nil, err
		}
		account.Merge(bal)
	}
	if desc.NeedsChange() {
		change, err := m.Change(ctx, uuid)
		if err != nil {
			return nil, err
		}
		account.Merge(change)
	}

	for _, cat := range []models.Category{models.CategoryFlags, models.CategorySpecial} {
		for _, name := range desc.Category(cat).Sorted() {
			fn, ok := flagTable[name]
			if !ok {
				continue
			}
			m.log.Debug("Getting value for flag", "flag", name, "accountId", acct.AccountID)
			v, err := fn(ctx, m, acct)
			if err != nil {
				return nil, err
			}
			account[name] = v
		}
	}
	return account, nil
}

type flagFunc func(ctx context.Context, m *AccountMap, acct uuidcodec.AccountUUID) (any, error)

// flagTable holds the flags with a known reference value. maFlag,
// washSaleFlag and mdvFlag are checked for presence only.
var flagTable = map[string]flagFunc{
	"isIRA": func(ctx context.Context, m *AccountMap, acct uuidcodec.AccountUUID) (any, error) {
		bal, err := m.AllBalances(ctx, acct.AccountID)
		if err != nil {
			return nil, err
		}
		r := newReader(bal, "AccountBalInfo")
		t := r.str("AcctType")
		if r.err != nil {
			return nil, r.err
		}
		return IRATypes[t], nil
	},
	"streamingRestrictions": func(_ context.Context, _ *AccountMap, acct uuidcodec.AccountUUID) (any, error) {
		return map[string]any{"accountStreaming": StreamingByAccountType[acct.AcctType]}, nil
	},
	"geoDomestic": func(context.Context, *AccountMap, uuidcodec.AccountUUID) (any, error) {
		return false, nil
	},
	"funded": func(context.Context, *AccountMap, uuidcodec.AccountUUID) (any, error) {
		return true, nil
	},
}

func (m *AccountMap) loadDescriptions(ctx context.Context) error {
	if m.descriptions != nil {
		return nil
	}
	resp, err := m.backend.AcctCommonGet(ctx, m.userID)
	if err != nil {
		return fmt.Errorf("AcctCommonGet: %w", err)
	}
	list, err := indexer.Get(resp, "Acctcommons")
	if err != nil {
		return &indexer.StructuralError{Path: "AcctCommonGet.Acctcommons"}
	}
	m.descriptions = indexer.ByID(list, "AcctNo")
	return nil
}

func (m *AccountMap) loadBalances(ctx context.Context) error {
	if m.balances != nil {
		return nil
	}
	resp, err := m.backend.GetAllBalances(ctx, m.userID)
	if err != nil {
		return fmt.Errorf("GetAllBalances: %w", err)
	}
	list, err := indexer.Get(resp, "AccountBalInfo")
	if err != nil {
		return &indexer.StructuralError{Path: "GetAllBalances.AccountBalInfo"}
	}
	m.balances = indexer.ByID(list, "AcctNo")
	for _, info := range m.balances {
		formatBalances(info)
	}
	return nil
}

// formatBalances adds an MGS-Balance map holding every balance under both
// its backend name and its gateway name.
func formatBalances(info indexer.Node) {
	raw, ok := info["Balance"]
	if !ok || empty(raw) {
		return
	}
	out := make(map[string]any)
	for _, b := range indexer.AsCollection(raw).Items {
		name := indexer.String(b, "Name")
		value := b["Value"]
		out[name] = value
		if mapped, ok := BalanceMap[name]; ok {
			out[mapped] = value
		}
	}
	info[MGSBalanceKey] = out
}

func (m *AccountMap) descriptionFor(ctx context.Context, accountID string) (indexer.Node, error) {
	if err := m.loadDescriptions(ctx); err != nil {
		return nil, err
	}
	d, ok := m.descriptions[accountID]
	if !ok {
		return nil, &indexer.StructuralError{Path: "AcctCommonGet.Acctcommons.AcctNo=" + accountID}
	}
	return d, nil
}

// AllBalances returns the GetAllBalances entry of accountID, with its
// MGS-Balance map.
func (m *AccountMap) AllBalances(ctx context.Context, accountID string) (indexer.Node, error) {
	if err := m.loadBalances(ctx); err != nil {
		return nil, err
	}
	b, ok := m.balances[accountID]
	if !ok {
		return nil, &indexer.StructuralError{Path: "GetAllBalances.AccountBalInfo.AcctNo=" + accountID}
	}
	return b, nil
}

func (m *AccountMap) portfolioTotals(ctx context.Context, accountID string) (indexer.Node, error) {
	if t, ok := m.totals[accountID]; ok {
		return t, nil
	}
	resp, err := m.backend.GetPortfolioTotals(ctx, m.userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetPortfolioTotals: %w", err)
	}
	out, err := indexer.Section(resp, "Output")
	if err != nil {
		// Accounts without positions have no totals.
		out = indexer.Node{
			"TodaysGainLoss":    0,
			"TodaysGainLossPct": 0,
			"TotalGainLoss":     0,
			"TotalGainPct":      0,
		}
	}
	m.totals[accountID] = out
	return out, nil
}

// stockPlanRecord finds the CSGRecordDetails entry for the uuid's symbol.
func (m *AccountMap) stockPlanRecord(ctx context.Context, acct uuidcodec.AccountUUID) (indexer.Node, error) {
	d, err := m.descriptionFor(ctx, acct.AccountID)
	if err != nil {
		return nil, err
	}
	details, err := indexer.Get(d, "CSGAccountInfo", "CSGRecordDetails")
	if err != nil {
		return nil, &indexer.StructuralError{Path: "AcctCommonGet.Acctcommons.CSGAccountInfo.CSGRecordDetails"}
	}
	for _, rec := range indexer.AsCollection(details).Items {
		if indexer.String(rec, "Symbol") == acct.Symbol {
			return rec, nil
		}
	}
	return indexer.Node{}, nil
}

// Description maps the AcctCommonGet entry of uuid.
func (m *AccountMap) Description(ctx context.Context, uuid string) (models.Record, error) {
	acct, err := uuidcodec.ParseAccountUUID(uuid)
	if err != nil {
		return nil, err
	}
	d, err := m.descriptionFor(ctx, acct.AccountID)
	if err != nil {
		return nil, err
	}

	r := newReader(d, "Acctcommons")
	key := r.sub("Key")
	accountID := key.str("AcctNo")
	instNo := key.str("InstNo")
	mode := r.req("Mode")
	acctDesc := r.opt("AcctDescription", nil)
	short := r.opt("ShortDescription", nil)
	long := r.opt("LongDescription", nil)
	if key.err != nil {
		return nil, key.err
	}
	if r.err != nil {
		return nil, r.err
	}

	instType, ok := InstitutionMap[instNo]
	if acct.IsStockPlan() {
		instType, ok = StockPlanInstitution, true
	}
	if !ok {
		return nil, fmt.Errorf("account %s: unknown institution number %q", accountID, instNo)
	}
	acctType := InstitutionAccountType[instType]
	if acct.IsManaged() {
		acctType = ManagedAccountType
	}

	if acct.IsStockPlan() {
		rec, err := m.stockPlanRecord(ctx, acct)
		if err != nil {
			return nil, err
		}
		short = rec["CSGShortDescription"]
		long = rec["CSGLongDescription"]
	}

	return models.Record{
		"accountUuid":      uuid,
		"accountId":        accountID,
		"accountMode":      mode,
		"acctDesc":         acctDesc,
		"accountShortName": short,
		"accountLongName":  long,
		"acctType":         acctType,
		"instType":         instType,
	}, nil
}

// Balance maps the balances of uuid. Stock plan accounts only carry an
// account value.
func (m *AccountMap) Balance(ctx context.Context, uuid string) (models.Record, error) {
	acct, err := uuidcodec.ParseAccountUUID(uuid)
	if err != nil {
		return nil, err
	}
	if acct.IsStockPlan() {
		sp, err := m.stockPlanFor(ctx, acct)
		if err != nil {
			return nil, err
		}
		return models.Record{"accountValue": sp["accountValue"]}, nil
	}

	b, err := m.AllBalances(ctx, acct.AccountID)
	if err != nil {
		return nil, err
	}
	r := newReader(b, "AccountBalInfo")
	mode := r.req("AcctMode")
	if r.err != nil {
		return nil, r.err
	}
	mgs, _ := b[MGSBalanceKey].(map[string]any)
	return models.Record{
		"cashAvailableForWithdrawal":   mgs["cashAvailableForWithdrawal"],
		"marginAvailableForWithdrawal": mgs["marginAvailableForWithdrawal"],
		"purchasingPower":              mgs["purchasingPower"],
		"totalAvailableForWithdrawal":  mgs["totalAvailableForWithdrawal"],
		"ledgerAccountValue":           mgs["totalBalance"],
		"accountValue":                 mgs["totalEquity"],
		"accountMode":                  mode,
	}, nil
}

// Change maps the day and total gains of uuid.
func (m *AccountMap) Change(ctx context.Context, uuid string) (models.Record, error) {
	acct, err := uuidcodec.ParseAccountUUID(uuid)
	if err != nil {
		return nil, err
	}
	if acct.IsStockPlan() {
		sp, err := m.stockPlanFor(ctx, acct)
		if err != nil {
			return nil, err
		}
		return models.Record{
			"daysGain":        sp["daysGain"],
			"daysGainPercent": sp["daysGainPercent"],
		}, nil
	}

	t, err := m.portfolioTotals(ctx, acct.AccountID)
	if err != nil {
		return nil, err
	}
	r := newReader(t, "GetPortfolioTotals.Output")
	daysGain := r.req("TodaysGainLoss")
	daysPct := r.float("TodaysGainLossPct")
	totalGain := r.req("TotalGainLoss")
	totalPct := r.float("TotalGainPct")
	if r.err != nil {
		return nil, r.err
	}
	return models.Record{
		"daysGain":         daysGain,
		"daysGainPercent":  utils.RoundFloat(daysPct, 2),
		"totalGain":        totalGain,
		"totalGainPercent": utils.RoundFloat(totalPct, 2),
	}, nil
}

// StockPlanEmployeeID returns the OlEmpId of a stock plan account uuid.
func (m *AccountMap) StockPlanEmployeeID(ctx context.Context, uuid string) (string, error) {
	acct, err := uuidcodec.ParseAccountUUID(uuid)
	if err != nil {
		return "", err
	}
	rec, err := m.stockPlanRecord(ctx, acct)
	if err != nil {
		return "", err
	}
	r := newReader(rec, "CSGRecordDetails")
	id := r.str("OlEmpId")
	return id, r.err
}

func (m *AccountMap) stockPlanFor(ctx context.Context, acct uuidcodec.AccountUUID) (models.Record, error) {
	rec, err := m.stockPlanRecord(ctx, acct)
	if err != nil {
		return nil, err
	}
	r := newReader(rec, "CSGRecordDetails")
	emp := r.str("OlEmpId")
	if r.err != nil {
		return nil, r.err
	}
	return m.StockPlanBalance(ctx, emp)
}

// StockPlanBalance computes today's and yesterday's balances of a stock
// plan participant along with the derived gain and account value.
func (m *AccountMap) StockPlanBalance(ctx context.Context, employeeID string) (models.Record, error) {
	if rec, ok := m.stockPlan[employeeID]; ok {
		return rec, nil
	}
	resp, err := m.backend.SPUserBalances(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("SPUserBalances: %w", err)
	}
	sec, err := indexer.Section(resp, "Envelope", "Body", "getAccountBalancesResponse", "SPUserBalancesResponse")
	if err != nil {
		return nil, &indexer.StructuralError{Path: "Envelope.Body.getAccountBalancesResponse.SPUserBalancesResponse"}
	}

	today, err := sumMoneys(sec, "TodayBalances", stockPlanMoneys)
	if err != nil {
		return nil, err
	}
	yesterday, err := sumMoneys(sec, "YesterdayBalances", stockPlanMoneys)
	if err != nil {
		return nil, err
	}
	potential, err := sumMoneys(sec, "TodayBalances", potentialBenefitMoneys)
	if err != nil {
		return nil, err
	}

	gain := today - yesterday
	gainPct := 0.0
	if yesterday > 0 {
		gainPct = gain / yesterday * 100
	}
	rec := models.Record{
		"today_balance":         today,
		"yesterday_balance":     yesterday,
		"daysGain":              gain,
		"daysGainPercent":       gainPct,
		"potentialBenefitValue": potential,
		"accountValue":          today + potential,
	}
	m.stockPlan[employeeID] = rec
	return rec, nil
}

// sumMoneys adds the listed fields of one balances section. An absent or
// empty section adds up to 0.
func sumMoneys(sec indexer.Node, name string, fields []string) (float64, error) {
	bal, err := indexer.Section(sec, name)
	if err != nil || len(bal) == 0 {
		return 0, nil
	}
	r := newReader(bal, "SPUserBalancesResponse."+name)
	vals := make([]float64, 0, len(fields))
	for _, f := range fields {
		vals = append(vals, r.float(f))
	}
	if r.err != nil {
		return 0, r.err
	}
	return utils.SumFloats(vals...), nil
}
