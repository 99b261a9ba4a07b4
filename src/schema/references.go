package schema

import "github.com/username/mgscheck/src/models"

// Reference object types.
const (
	RefAccounts    = "accounts"
	RefPositions   = "positions"
	RefInstruments = "instruments"
	RefTaxLots     = "taxlots"

	RefWatchListEditEntry = "watchList_editEntry"
	RefWatchListCreate    = "watchList_Create"
	RefWatchListDelete    = "watchList_Delete"
	RefWatchListList      = "watchList_list"
)

// ReferenceIDs are the id keys reported with every failure, in order.
var ReferenceIDs = []string{
	"accountId",
	"accountUuid",
	"positionId",
	"instrumentId",
	"positionLotId",
	"watchListId",
	"entryId",
	"symbol",
	"lastTradeTime",
}

var (
	InstrumentTags = NewTagSet(
		"instrumentId", "symbol", "displaySymbol", "typeCode", "exchangeCode", "bid", "ask",
		"marketValue", "volume", "marketCap", "pe", "eps", "lastPrice", "week52High", "week52Low",
		"impliedVolatilityPct", "openInterest", "delta", "premium", "gamma", "vega", "theta",
		"expirationDate", "underlyingTypeCode", "underlyingExchangeCode", "underlyingSymbol",
		"daysExpiration", "markToMarket", "lastTradeTime", "previousClose", "isPriceAdjusted",
		"adjLastTrade", "adjPreviousClose", "dayChangeValue", "dayChangePerc", "extHrChangeValue",
		"extHrChangePerc", "extHrLastPrice",
	)

	PositionTags = NewTagSet(
		"symbol", "commission", "todayCommissions", "fees", "quantity", "todayQuantity",
		"displayQuantity", "basisPrice", "baseSymbolPrice", "pricePaid", "todayPricePaid",
		"daysGainValue", "totalGainValue", "daysGainPercentage", "totalGainPercentage",
		"daysPurchase", "todaysClose", "hasLots", "inTheMoneyFlag", "optionUnderlier",
		"strikePrice", "markToMarket", "lastTradeTime", "previousClose", "volume",
		"isPriceAdjusted", "adjLastTrade", "adjPreviousClose", "dayChangeValue", "dayChangePerc",
		"extHrChangeValue", "extHrChangePerc", "extHrLastPrice", "marketValue", "displaySymbol",
	)

	BondTags            = NewTagSet("bondRate", "bondFactor", "maturity")
	AccountPositionTags = NewTagSet("accountUuid", "accountId", "positionId")

	TaxLotTags = NewTagSet(
		"price", "termCode", "daysGain", "daysGainPct", "marketValue", "totalCost",
		"totalCostForGainPct", "totalGain", "totalGainPct", "lotSourceCode", "originalQty",
		"remainingQty", "availableQty", "orderNo", "legNo", "acquiredDate", "locationCode",
		"exchangeRate", "settlementCurrency", "paymentCurrency", "adjPrice", "commPerShare",
		"feesPerShare", "shortType", "positionId", "positionLotId",
	)

	HomeWidgetTags = NewTagSet(
		"symbol", "symbolDescription", "typeCode", "lastPrice", "change", "percentChange", "volume",
		"lastTradeTime", "timezone", "openPrice", "previousClose", "marketCap", "averageVolume",
		"pe", "eps", "nextEarningDate",
	)
)

// Composite reference tag sets.
var (
	Position     = PositionTags.Union(AccountPositionTags)
	PositionBond = Position.Union(BondTags)

	WatchlistPosition     = PositionTags.With("watchListUuid", "watchListId", "entryId")
	WatchlistPositionBond = WatchlistPosition.Union(BondTags)

	AccountInstrument     = InstrumentTags.With("positionId")
	AccountInstrumentBond = AccountInstrument.Union(BondTags)

	WatchlistInstrument     = InstrumentTags.With("watchListId", "entryId")
	WatchlistInstrumentBond = WatchlistInstrument.Union(BondTags)

	WatchListEditEntry = NewTagSet("watchListUuid", "watchListId", "watchListName", "entries")
	EditEntry          = NewTagSet("entryId", "newIndexId")
	WatchListList      = NewTagSet("watchListUuid", "watchListId", "watchListName")
	WatchListDelete    = NewTagSet("watchListUuid", "watchListId")
	WatchListCreate    = NewTagSet("watchListName", "watchListUuid", "watchListId")

	AddEntry = NewTagSet(
		"entryId", "symbol", "commission", "todayCommissions", "fees", "quantity", "basisPrice",
		"baseSymbolPrice", "pricePaid", "todayPricePaid", "daysGainValue", "totalGainValue",
		"daysGainPercentage", "totalGainPercentage", "daysPurchase", "todaysClose", "lastTradeTime",
	)
)

// BondTypeCode and OptionTypeCode select the bond and option mapping variants.
const (
	BondTypeCode   = "BOND"
	OptionTypeCode = "OPTN"
)

// PositionTagsFor returns the expected tags of an account position reference.
func PositionTagsFor(typeCode string) TagSet {
	if typeCode == BondTypeCode {
		return PositionBond
	}
	return Position
}

// InstrumentTagsFor returns the expected tags of an account instrument reference.
func InstrumentTagsFor(typeCode string) TagSet {
	if typeCode == BondTypeCode {
		return AccountInstrumentBond
	}
	return AccountInstrument
}

var referenceTypes = map[models.Service][]string{
	models.ServiceCompleteView:    {RefAccounts},
	models.ServiceAccountList:     {RefAccounts},
	models.ServiceAccountOverview: {RefAccounts},
	models.ServiceAllBrokerage:    {RefAccounts, RefPositions, RefInstruments},
	models.ServiceIndividual:      {RefAccounts, RefPositions, RefInstruments},
	models.ServiceTaxLots:         {RefPositions, RefInstruments, RefTaxLots},
}

// ReferenceTypes lists the reference types a service response must carry.
func ReferenceTypes(svc models.Service) []string {
	return referenceTypes[svc]
}

// ExpectsAccounts reports whether svc responses carry account references.
func ExpectsAccounts(svc models.Service) bool {
	for _, t := range referenceTypes[svc] {
		if t == RefAccounts {
			return true
		}
	}
	return false
}
