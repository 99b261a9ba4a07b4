package mapping

import (
	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/utils"
)

// HomeWidgetInstrument maps a quote backend response into the instrument a
// home widget shows.
func HomeWidgetInstrument(resp indexer.Node) (models.Record, error) {
	root := newReader(resp, "Quote")
	qc := root.sub("Qcommon")
	pid := qc.sub("Pid")
	add := root.sub("Qaddl", "Addlstock")
	next := add.sub("Nextearningsdate")

	rec := models.Record{
		"symbol":        pid.req("Symbol"),
		"typeCode":      pid.req("TypeCode"),
		"change":        qc.req("Change"),
		"volume":        utils.RoundFloat(qc.float("Volume"), 2),
		"lastTradeTime": utils.RoundFloat(qc.float("Timestamp"), 2),
		"timezone":      qc.req("Timezone"),
		"openPrice":     qc.req("Open"),
		"previousClose": qc.req("PrevClose"),
		"marketCap":     qc.req("MarketCap"),

		"lastPrice":     add.req("AdjustedLast"),
		"averageVolume": add.req("Avgvol10d"),
		"pe":            add.req("Pe"),
		"eps":           add.req("Eps"),
		"nextEarningDate": map[string]any{
			"day":   next.req("Day"),
			"month": next.req("Month"),
			"year":  next.req("Year"),
		},
	}
	for _, r := range []*reader{qc, pid, add, next} {
		if r.err != nil {
			return nil, r.err
		}
	}
	return rec, nil
}
