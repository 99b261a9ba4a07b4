package mapping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/schema"
	"github.com/username/mgscheck/src/uuidcodec"
)

func TestPositionMap_Equity(t *testing.T) {
	m, err := NewPositionMap(load(t, "portfolio.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"9001", "9002", "9003"}, m.IDs())

	pos, err := m.Position("9001")
	require.NoError(t, err)

	assert.Equal(t, "", pos["accountUuid"])
	assert.Equal(t, "63477062", pos["accountId"])
	assert.Equal(t, 9001.0, pos["positionId"])
	assert.Equal(t, "ETFC", pos["symbol"])
	assert.Equal(t, 1600.0, pos["marketValue"])
	assert.Equal(t, "10", pos["quantity"])
	assert.Equal(t, "10", pos["displayQuantity"])
	assert.Equal(t, "150.00", pos["basisPrice"])
	assert.Equal(t, false, pos["daysPurchase"])
	assert.Equal(t, false, pos["hasLots"])
	assert.Equal(t, 0, pos["optionUnderlier"], "empty underlier falls back to 0")
	assert.Equal(t, "160.00", pos["todaysClose"])

	for _, tag := range []string{"extHrLastPrice", "baseSymbolPrice"} {
		assert.NotContains(t, pos, tag, "muted on the gateway side")
	}
}

func TestPositionMap_Bond(t *testing.T) {
	m, err := NewPositionMap(load(t, "portfolio.json"))
	require.NoError(t, err)

	pos, err := m.Position("9002")
	require.NoError(t, err)
	assert.Equal(t, "US TREAS 2.5% 2030", pos["symbol"])
	assert.Equal(t, "US TREAS 2.5% 2030", pos["basisPrice"])
	assert.Equal(t, "2.5", pos["bondRate"])
	assert.Equal(t, BondFactor, pos["bondFactor"])
	assert.Equal(t, "5/15/2030", pos["maturity"])

	inst, err := m.Instrument("9002")
	require.NoError(t, err)
	assert.Equal(t, "US TREAS 2.5% 2030", inst["symbol"])
	assert.Equal(t, "BOND", inst["typeCode"])
}

func TestPositionMap_BondWithoutMaturity(t *testing.T) {
	portfolio := load(t, "portfolio.json")
	bond := portfolio["Output"].(map[string]any)["PositionList"].([]any)[1].(map[string]any)
	bond["Bond"].(map[string]any)["Maturitydate"] = map[string]any{"Month": "0", "Day": "0", "Year": "0"}

	m, err := NewPositionMap(portfolio)
	require.NoError(t, err)
	pos, err := m.Position("9002")
	require.NoError(t, err)
	assert.Equal(t, "--", pos["maturity"])
}

func TestPositionMap_Option(t *testing.T) {
	m, err := NewPositionMap(load(t, "portfolio.json"))
	require.NoError(t, err)

	pos, err := m.Position("9003")
	require.NoError(t, err)
	assert.Equal(t, int64(200), pos["quantity"])
	assert.Equal(t, int64(100), pos["todayQuantity"])
	assert.Equal(t, "2", pos["displayQuantity"], "display quantity keeps the contract count")
	assert.Equal(t, true, pos["daysPurchase"])
	assert.Equal(t, "ETFC", pos["optionUnderlier"])

	inst, err := m.Instrument("9003")
	require.NoError(t, err)
	assert.Equal(t, 25.0, inst["impliedVolatilityPct"])
	assert.Equal(t, "6/19/2026", inst["expirationDate"])
	assert.Equal(t, "EQ", inst["underlyingTypeCode"])
	assert.Equal(t, "", inst["underlyingExchangeCode"])
	assert.Equal(t, "ETFC", inst["underlyingSymbol"])
	assert.Equal(t, "1200", inst["openInterest"])
	assert.Equal(t, "", inst["instrumentId"], "no PfAddlInfo")
}

func TestPositionMap_FractionalOptionQuantity(t *testing.T) {
	portfolio := load(t, "portfolio.json")
	option := portfolio["Output"].(map[string]any)["PositionList"].([]any)[2].(map[string]any)
	option["Portfolios"].(map[string]any)["Quantity"] = "1.5"

	m, err := NewPositionMap(portfolio)
	require.NoError(t, err)
	_, err = m.Position("9003")
	assert.ErrorContains(t, err, "whole number")
}

func TestPositionMap_EquityInstrument(t *testing.T) {
	m, err := NewPositionMap(load(t, "portfolio.json"))
	require.NoError(t, err)

	inst, err := m.Instrument("9001")
	require.NoError(t, err)

	assert.Equal(t, "77", inst["instrumentId"])
	assert.Equal(t, 9001.0, inst["positionId"])
	assert.Equal(t, 1234567.0, inst["volume"])
	assert.Equal(t, "--", inst["expirationDate"])
	assert.Equal(t, "--", inst["underlyingSymbol"])
	assert.Equal(t, 0, inst["openInterest"])
	assert.Equal(t, 0, inst["extHrLastPrice"])
	assert.Equal(t, "NSDQ", inst["exchangeCode"])
	assert.Equal(t, "12.5", inst["pe"])
	assert.Equal(t, 0.0, inst["impliedVolatilityPct"])
}

func TestPositionMap_Errors(t *testing.T) {
	_, err := NewPositionMap(indexer.Node{"Output": indexer.Node{}})
	var se *indexer.StructuralError
	require.True(t, errors.As(err, &se))

	m, err := NewPositionMap(load(t, "portfolio.json"))
	require.NoError(t, err)
	_, err = m.Position("404")
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Output.PositionList.PositionId=404", se.Path)

	portfolio := load(t, "portfolio.json")
	first := portfolio["Output"].(map[string]any)["PositionList"].([]any)[0].(map[string]any)
	delete(first, "DetailedQuote")
	m, err = NewPositionMap(portfolio)
	require.NoError(t, err)
	_, err = m.Instrument("9001")
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "PositionList.DetailedQuote", se.Path)

	_, err = m.Position("9001")
	assert.NoError(t, err, "positions do not read the detailed quote")
}

func TestWatchlistMap(t *testing.T) {
	m, err := NewWatchlistMap(load(t, "watchlist.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"E1", "E2"}, m.IDs())
	assert.Equal(t, "WL1", m.PortfolioID())

	pos, err := m.Position("E2")
	require.NoError(t, err)
	assert.Equal(t, uuidcodec.EncodeString("WL1"), pos["watchListUuid"])
	assert.Equal(t, "WL1", pos["watchListId"])
	assert.Equal(t, "E2", pos["entryId"])
	assert.Equal(t, "MS", pos["symbol"])
	assert.NotContains(t, pos, "positionId")

	inst, err := m.Instrument("E1")
	require.NoError(t, err)
	assert.Equal(t, 0, inst["instrumentId"])
	assert.Equal(t, "E1", inst["entryId"])

	entry, err := m.Entry("E1")
	require.NoError(t, err)
	assert.Equal(t, "160.00", entry["pricePaid"])
	assert.Equal(t, "0.50", entry["daysGainValue"])
	assert.Equal(t, 1, entry["quantity"])
	assert.Equal(t, true, entry["daysPurchase"])
	assert.Len(t, entry, 16)

	_, err = m.Entry("E9")
	var se *indexer.StructuralError
	require.True(t, errors.As(err, &se))
}

func TestTaxLotMap(t *testing.T) {
	m, err := NewTaxLotMap(load(t, "lots.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"L1"}, m.IDs())

	lot, err := m.TaxLot("L1")
	require.NoError(t, err)

	assert.Equal(t, "L1", lot["positionLotId"])
	assert.Equal(t, "9001", lot["positionId"])
	assert.Equal(t, "0.0", lot["adjPrice"])
	assert.Equal(t, "1", lot["shortType"])
	assert.Equal(t, "", lot["settlementCurrency"])
	assert.Equal(t, "USD", lot["paymentCurrency"])
	assert.Equal(t, 0, lot["acquiredDate"])
	assert.Equal(t, "6.67", lot["totalGainPct"])
	assert.Equal(t, lot["totalCostForGainPct"], lot["totalGainPct"])

	for tag := range schema.TaxLotTags {
		assert.Contains(t, lot, tag)
	}
}

func TestHomeWidgetInstrument(t *testing.T) {
	inst, err := HomeWidgetInstrument(load(t, "homewidget.json"))
	require.NoError(t, err)

	assert.Equal(t, "ETFC", inst["symbol"])
	assert.Equal(t, 1234567.46, inst["volume"])
	assert.InDelta(t, 1589211000.13, inst["lastTradeTime"], 0.001)
	assert.Equal(t, map[string]any{"day": 23.0, "month": 7.0, "year": 2026.0}, inst["nextEarningDate"])

	_, err = HomeWidgetInstrument(indexer.Node{"Qcommon": indexer.Node{}})
	var se *indexer.StructuralError
	require.True(t, errors.As(err, &se))
}
