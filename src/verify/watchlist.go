package verify

import (
	"context"
	"fmt"

	"github.com/username/mgscheck/src/compare"
	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/mapping"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/response"
	"github.com/username/mgscheck/src/schema"
	"github.com/username/mgscheck/src/services"
)

func (v *Verifier) userID() (string, error) {
	sess := v.gateway.Session()
	if sess == nil {
		return "", services.ErrNotLoggedIn
	}
	return sess.UserID, nil
}

func watchlistPositionTags(typeCode string) schema.TagSet {
	if typeCode == schema.BondTypeCode {
		return schema.WatchlistPositionBond
	}
	return schema.WatchlistPosition
}

func watchlistInstrumentTags(typeCode string) schema.TagSet {
	if typeCode == schema.BondTypeCode {
		return schema.WatchlistInstrumentBond
	}
	return schema.WatchlistInstrument
}

// CheckWatchlist checks the positions and instruments of a watch list
// response against the backend portfolio view of each watch list.
func (v *Verifier) CheckWatchlist(ctx context.Context, resp *response.Response) error {
	userID, err := v.userID()
	if err != nil {
		return err
	}
	c := compare.NewContext("watchlist", v.opts.Compare).WithLogger(logger.FromContext(ctx))
	lists := map[string]*mapping.WatchlistMap{}

	entryMap := func(obj models.Record) (*mapping.WatchlistMap, bool) {
		id := indexer.IDString(obj["watchListId"])
		if m, ok := lists[id]; ok {
			return m, true
		}
		raw, err := v.backend.ViewPortfolio(ctx, userID, id)
		if err != nil {
			c.Hard(fmt.Errorf("ViewPortfolio: %w", err), obj)
			return nil, false
		}
		m, err := mapping.NewWatchlistMap(raw)
		if err != nil {
			c.Hard(err, obj)
			return nil, false
		}
		lists[id] = m
		return m, true
	}

	for _, p := range resp.References(schema.RefPositions) {
		c.CheckTags(p, watchlistPositionTags(p.String("typeCode")), schema.RefPositions)
		m, ok := entryMap(p)
		if !ok {
			continue
		}
		s2, err := m.Position(indexer.IDString(p["entryId"]))
		if err != nil {
			c.Hard(err, p)
			continue
		}
		compare.CheckValues(c, p, s2)
	}
	for _, i := range resp.References(schema.RefInstruments) {
		c.CheckTags(i, watchlistInstrumentTags(i.String("typeCode")), schema.RefInstruments)
		m, ok := entryMap(i)
		if !ok {
			continue
		}
		s2, err := m.Instrument(indexer.IDString(i["entryId"]))
		if err != nil {
			c.Hard(err, i)
			continue
		}
		compare.CheckValues(c, i, s2)
	}
	return c.Err()
}

// CheckHomeWidget checks the instruments of a home widget response against
// the backend quote of each symbol.
func (v *Verifier) CheckHomeWidget(ctx context.Context, resp *response.Response) error {
	c := compare.NewContext("homeWidget", v.opts.Compare).WithLogger(logger.FromContext(ctx))
	for _, i := range resp.References(schema.RefInstruments) {
		c.CheckTags(i, schema.HomeWidgetTags, schema.RefInstruments)
		raw, err := v.backend.GetQuote(ctx, i.String("symbol"))
		if err != nil {
			c.Hard(fmt.Errorf("GetQuote: %w", err), i)
			continue
		}
		s2, err := mapping.HomeWidgetInstrument(raw)
		if err != nil {
			c.Hard(err, i)
			continue
		}
		compare.CheckValues(c, i, s2)
	}
	return c.Err()
}
