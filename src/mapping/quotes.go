package mapping

import (
	"fmt"
	"math"
	"sort"

	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/schema"
	"github.com/username/mgscheck/src/utils"
	"github.com/username/mgscheck/src/uuidcodec"
)

// quote maps one backend position-like entry, one that carries Portfolios,
// BasicQuote, DetailedQuote, Options, Fundamentals and Bond sections.
type quote struct {
	pos  indexer.Node
	name string
}

func (q quote) section(name string) *reader {
	return newReader(q.pos, q.name).sub(name)
}

func (q quote) typeCode() string {
	return indexer.String(q.pos, "BasicQuote", "TypeCode")
}

func (q quote) expirationDate() (string, error) {
	exp := q.section("Options").sub("Expiration")
	month, day, year := exp.req("Month"), exp.req("Day"), exp.req("Year")
	if exp.err != nil {
		return "", exp.err
	}
	return utils.FormatMDYOrNoData(month, day, year), nil
}

// position maps the quote into a gateway position. ids holds the
// identifying keys of the concrete entry kind.
func (q quote) position(ids models.Record) (models.Record, error) {
	pf := q.section("Portfolios")
	bq := q.section("BasicQuote")
	opt := q.section("Options")

	quantity := pf.req("Quantity")
	pos := models.Record{}.Merge(ids).Merge(models.Record{
		"hasLots":             false,
		"commission":          pf.req("Commissions"),
		"todayCommissions":    pf.opt("TodayCommissions", 0),
		"fees":                pf.req("OtherFees"),
		"marketValue":         pf.float("MarketValue"),
		"quantity":            quantity,
		"todayQuantity":       pf.opt("TodayQuantity", 0),
		"displayQuantity":     quantity,
		"basisPrice":          pf.req("PricePaid"),
		"pricePaid":           pf.req("PricePaid"),
		"todayPricePaid":      pf.opt("TodayPricePaid", 0),
		"daysGainValue":       pf.opt("DaysGainVal", 0),
		"totalGainValue":      pf.opt("TotalGainVal", 0),
		"daysGainPercentage":  pf.opt("DaysGainPct", 0),
		"totalGainPercentage": pf.opt("TotalGainPct", 0),
		"daysPurchase":        indexer.IDString(pf.opt("TodayQuantity", "0")) != "0",

		"symbol":           bq.req("Symbol"),
		"todaysClose":      bq.req("LastTrade"),
		"markToMarket":     bq.req("MarkToMarket"),
		"lastTradeTime":    bq.req("LastTradeTime"),
		"previousClose":    bq.req("PreviousClose"),
		"volume":           bq.req("Volume"),
		"isPriceAdjusted":  bq.req("IsPriceAdjusted"),
		"adjLastTrade":     bq.req("AdjLastTrade"),
		"adjPreviousClose": bq.req("AdjPreviousClose"),
		"dayChangeValue":   bq.req("ChangeVal"),
		"dayChangePerc":    bq.req("ChangePct"),
		"displaySymbol":    bq.req("DisplaySymbol"),

		"inTheMoneyFlag":  opt.req("InTheMoneyFlag"),
		"optionUnderlier": opt.or("OptionUnderlier", 0),
		"strikePrice":     opt.req("StrikePrice"),
	})
	for _, r := range []*reader{pf, bq, opt} {
		if r.err != nil {
			return nil, r.err
		}
	}

	switch q.typeCode() {
	case schema.BondTypeCode:
		bond, err := q.bond()
		if err != nil {
			return nil, err
		}
		pos.Merge(bond)
	case schema.OptionTypeCode:
		qty, err := contracts(quantity)
		if err != nil {
			return nil, err
		}
		todayQty, err := contracts(pf.opt("TodayQuantity", 0))
		if err != nil {
			return nil, err
		}
		pos["quantity"] = qty * OptionMultiplier
		pos["todayQuantity"] = todayQty * OptionMultiplier
	}
	return pos, nil
}

// contracts reads an option contract count, which must be whole.
func contracts(v any) (int64, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("option quantity %v is not a whole number of contracts", v)
	}
	return int64(f), nil
}

func (q quote) bond() (models.Record, error) {
	bq := q.section("BasicQuote")
	b := q.section("Bond")
	mat := b.sub("Maturitydate")
	desc := bq.req("SymbolDesc")
	rate := b.req("CouponRate")
	month, day, year := mat.req("Month"), mat.req("Day"), mat.req("Year")
	for _, r := range []*reader{bq, b, mat} {
		if r.err != nil {
			return nil, r.err
		}
	}
	return models.Record{
		"symbol":     desc,
		"basisPrice": desc,
		"bondRate":   rate,
		"bondFactor": BondFactor,
		"maturity":   utils.FormatMDYOrNoData(month, day, year),
	}, nil
}

// instrument maps the quote into a gateway instrument.
func (q quote) instrument(ids models.Record) (models.Record, error) {
	pf := q.section("Portfolios")
	bq := q.section("BasicQuote")
	dq := q.section("DetailedQuote")
	opt := q.section("Options")
	fund := q.section("Fundamentals")

	expiration, err := q.expirationDate()
	if err != nil {
		return nil, err
	}
	inst := models.Record{}.Merge(ids).Merge(models.Record{
		"marketValue": pf.float("MarketValue"),

		"symbol":           bq.req("Symbol"),
		"displaySymbol":    bq.req("DisplaySymbol"),
		"typeCode":         bq.req("TypeCode"),
		"volume":           bq.float("Volume"),
		"lastPrice":        bq.req("LastTrade"),
		"markToMarket":     bq.req("MarkToMarket"),
		"lastTradeTime":    bq.req("LastTradeTime"),
		"previousClose":    bq.req("PreviousClose"),
		"isPriceAdjusted":  bq.req("IsPriceAdjusted"),
		"adjLastTrade":     bq.req("AdjLastTrade"),
		"adjPreviousClose": bq.req("AdjPreviousClose"),
		"dayChangeValue":   bq.req("ChangeVal"),
		"dayChangePerc":    bq.req("ChangePct"),

		"openInterest":     0,
		"extHrChangeValue": 0,
		"extHrChangePerc":  0,
		"extHrLastPrice":   0,

		"impliedVolatilityPct":   opt.float("IvPct") * 100,
		"delta":                  opt.req("Delta"),
		"premium":                opt.req("Premium"),
		"gamma":                  opt.req("Gamma"),
		"vega":                   opt.req("Vega"),
		"theta":                  opt.req("Theta"),
		"expirationDate":         expiration,
		"underlyingTypeCode":     utils.NoData,
		"underlyingExchangeCode": utils.NoData,
		"underlyingSymbol":       utils.NoData,
		"daysExpiration":         opt.req("DaysExpiration"),

		"exchangeCode": dq.req("Exchange"),
		"bid":          dq.req("Bid"),
		"ask":          dq.req("Ask"),
		"marketCap":    dq.req("MarketCap"),
		"week52High":   dq.req("Week52High"),
		"week52Low":    dq.req("Week52Low"),

		"pe":  fund.req("PeRatio"),
		"eps": fund.req("Eps"),
	})
	for _, r := range []*reader{pf, bq, dq, opt, fund} {
		if r.err != nil {
			return nil, r.err
		}
	}

	switch q.typeCode() {
	case schema.OptionTypeCode:
		under := opt.sub("UnderlyingProductId")
		inst.Merge(models.Record{
			"underlyingTypeCode":     under.or("TypeCode", ""),
			"underlyingExchangeCode": under.or("ExchangeCode", ""),
			"underlyingSymbol":       under.req("Symbol"),
			"openInterest":           opt.req("OpenInterest"),
		})
		if under.err != nil {
			return nil, under.err
		}
		if opt.err != nil {
			return nil, opt.err
		}
	case schema.BondTypeCode:
		r := q.section("BasicQuote")
		inst["symbol"] = r.req("SymbolDesc")
		if r.err != nil {
			return nil, r.err
		}
	}
	return inst, nil
}

// instrumentID reads PfAddlInfo.InstrumentId, or "" when the entry has no
// additional info.
func (q quote) instrumentID() any {
	add, ok := q.pos["PfAddlInfo"].(indexer.Node)
	if !ok {
		return ""
	}
	return add["InstrumentId"]
}

// PositionMap maps the positions of one GetPortfolioInfo response.
type PositionMap struct {
	byID map[string]indexer.Node
}

func NewPositionMap(portfolioInfo indexer.Node) (*PositionMap, error) {
	list, err := indexer.Get(portfolioInfo, "Output", "PositionList")
	if err != nil {
		return nil, &indexer.StructuralError{Path: "GetPortfolioInfo.Output.PositionList"}
	}
	return &PositionMap{byID: indexer.ByID(list, "PositionId")}, nil
}

// IDs lists the backend position ids in order.
func (m *PositionMap) IDs() []string {
	return sortedIDs(m.byID)
}

func (m *PositionMap) quote(positionID string) (quote, error) {
	pos, ok := m.byID[positionID]
	if !ok {
		return quote{}, &indexer.StructuralError{Path: "Output.PositionList.PositionId=" + positionID}
	}
	return quote{pos: pos, name: "PositionList"}, nil
}

// Position returns the reference position for positionID.
func (m *PositionMap) Position(positionID string) (models.Record, error) {
	q, err := m.quote(positionID)
	if err != nil {
		return nil, err
	}
	r := newReader(q.pos, q.name)
	ids := models.Record{
		"accountUuid": "",
		"accountId":   r.req("AccountId"),
		"positionId":  r.req("PositionId"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return q.position(ids)
}

// Instrument returns the reference instrument for positionID.
func (m *PositionMap) Instrument(positionID string) (models.Record, error) {
	q, err := m.quote(positionID)
	if err != nil {
		return nil, err
	}
	r := newReader(q.pos, q.name)
	ids := models.Record{
		"instrumentId": q.instrumentID(),
		"positionId":   r.req("PositionId"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return q.instrument(ids)
}

// WatchlistMap maps the entries of one watch list portfolio view.
type WatchlistMap struct {
	portfolioID any
	byID        map[string]indexer.Node
}

func NewWatchlistMap(portfolioView indexer.Node) (*WatchlistMap, error) {
	out, err := indexer.Section(portfolioView, "Output")
	if err != nil {
		return nil, &indexer.StructuralError{Path: "WatchList_GetPortfolioView.Output"}
	}
	r := newReader(out, "Output")
	id := r.req("PortfolioId")
	list := r.req("EntryList")
	if r.err != nil {
		return nil, r.err
	}
	return &WatchlistMap{portfolioID: id, byID: indexer.ByID(list, "EntryId")}, nil
}

func (m *WatchlistMap) IDs() []string {
	return sortedIDs(m.byID)
}

func (m *WatchlistMap) PortfolioID() any { return m.portfolioID }

func (m *WatchlistMap) quote(entryID string) (quote, error) {
	pos, ok := m.byID[entryID]
	if !ok {
		return quote{}, &indexer.StructuralError{Path: "Output.EntryList.EntryId=" + entryID}
	}
	return quote{pos: pos, name: "EntryList"}, nil
}

// Position returns the reference watch list position for entryID.
func (m *WatchlistMap) Position(entryID string) (models.Record, error) {
	q, err := m.quote(entryID)
	if err != nil {
		return nil, err
	}
	wlID := indexer.IDString(m.portfolioID)
	ids := models.Record{
		"watchListUuid": uuidcodec.EncodeString(wlID),
		"watchListId":   m.portfolioID,
		"entryId":       q.pos["EntryId"],
	}
	return q.position(ids)
}

// Instrument returns the reference watch list instrument for entryID.
func (m *WatchlistMap) Instrument(entryID string) (models.Record, error) {
	q, err := m.quote(entryID)
	if err != nil {
		return nil, err
	}
	ids := models.Record{
		"watchListId":  m.portfolioID,
		"entryId":      q.pos["EntryId"],
		"instrumentId": 0,
	}
	return q.instrument(ids)
}

// Entry returns the entry object an add-entry response reports for entryID.
func (m *WatchlistMap) Entry(entryID string) (models.Record, error) {
	q, err := m.quote(entryID)
	if err != nil {
		return nil, err
	}
	bq := q.section("BasicQuote")
	entry := models.Record{
		"entryId":             q.pos["EntryId"],
		"symbol":              bq.req("Symbol"),
		"commission":          0,
		"todayCommissions":    0,
		"fees":                0,
		"quantity":            1,
		"basisPrice":          0,
		"baseSymbolPrice":     0,
		"pricePaid":           bq.req("LastTrade"),
		"todayPricePaid":      bq.req("LastTrade"),
		"daysGainValue":       bq.req("ChangeVal"),
		"totalGainValue":      0,
		"daysGainPercentage":  0,
		"totalGainPercentage": 0,
		"daysPurchase":        true,
		"todaysClose":         0,
	}
	if bq.err != nil {
		return nil, bq.err
	}
	return entry, nil
}

func sortedIDs(m map[string]indexer.Node) []string {
	ids := make([]string, 0, len(m))
	for k := range m {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids
}
