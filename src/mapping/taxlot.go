package mapping

import (
	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/models"
)

// TaxLotMap maps the lots of one GetPortfolioInfo lots response.
type TaxLotMap struct {
	byID map[string]indexer.Node
}

func NewTaxLotMap(portfolioInfoLots indexer.Node) (*TaxLotMap, error) {
	list, err := indexer.Get(portfolioInfoLots, "Output", "PositionList", "LotList")
	if err != nil {
		return nil, &indexer.StructuralError{Path: "GetPortfolioInfo.Output.PositionList.LotList"}
	}
	return &TaxLotMap{byID: indexer.ByID(list, "PositionLotId")}, nil
}

func (m *TaxLotMap) IDs() []string {
	return sortedIDs(m.byID)
}

// TaxLot returns the reference tax lot for positionLotID.
func (m *TaxLotMap) TaxLot(positionLotID string) (models.Record, error) {
	entry, ok := m.byID[positionLotID]
	if !ok {
		return nil, &indexer.StructuralError{Path: "Output.PositionList.LotList.PositionLotId=" + positionLotID}
	}
	pos := newReader(entry, "LotList")
	lot := pos.sub("Lot")
	rate := lot.sub("ExchgRate")

	rec := models.Record{
		"positionLotId": lot.req("PositionLotId"),
		"positionId":    lot.req("PositionId"),

		"adjPrice":  "0.0",
		"shortType": "1",

		"daysGain":            pos.req("DaysGainVal"),
		"daysGainPct":         pos.req("DaysGainPct"),
		"marketValue":         pos.req("MarketValue"),
		"totalCost":           pos.req("TotalCost"),
		"totalCostForGainPct": pos.req("TotalCostGainPct"),
		"totalGain":           pos.req("TotalGainVal"),
		"totalGainPct":        pos.req("TotalCostGainPct"),

		"termCode":           lot.req("TermCd"),
		"price":              lot.req("Price"),
		"lotSourceCode":      lot.req("LotSourceCd"),
		"originalQty":        lot.req("OriginalQty"),
		"remainingQty":       lot.req("RemainingQty"),
		"availableQty":       lot.req("AvailableQty"),
		"orderNo":            lot.req("CreateOrderNo"),
		"legNo":              lot.req("CreateLegNo"),
		"acquiredDate":       lot.opt("AdjCreatePsnDt", 0),
		"locationCode":       lot.req("LocationCd"),
		"exchangeRate":       rate.req("Rate"),
		"settlementCurrency": rate.or("SettlementCurrency", ""),
		"paymentCurrency":    rate.or("PaymentCurrency", ""),
		"commPerShare":       lot.req("CommPerShare"),
		"feesPerShare":       lot.req("FeesPerShare"),
	}
	for _, r := range []*reader{pos, lot, rate} {
		if r.err != nil {
			return nil, r.err
		}
	}
	return rec, nil
}
