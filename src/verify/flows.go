package verify

import (
	"context"
	"fmt"

	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/response"
	"github.com/username/mgscheck/src/schema"
	"github.com/username/mgscheck/src/uuidcodec"
)

func (f *flow) received(resp *response.Response) {
	f.coverage.UpdateActual(string(f.svc), resp)
	CheckTypes(f.c, resp, f.svc)
}

// brokerageUUIDs lists the account uuids of the account list that
// per-account services are requested for.
func (f *flow) brokerageUUIDs(ctx context.Context) ([]string, error) {
	list, err := f.gateway.AccountList(ctx)
	if err != nil {
		return nil, fmt.Errorf("accountList: %w", err)
	}
	var out []string
	for _, a := range BrokerageAccounts(list) {
		if f.opts.skipped(a.String("accountId")) {
			continue
		}
		out = append(out, a.String("accountUuid"))
	}
	return out, nil
}

func (f *flow) accountList(ctx context.Context) error {
	resp, err := f.gateway.AccountList(ctx)
	if err != nil {
		return err
	}
	f.received(resp)
	CheckListViewTags(f.c, resp, schema.ViewAccountList, schema.AccountList)
	CheckAccountTags(f.c, resp, f.svc, f.registry)
	CheckUUIDs(f.c, resp)
	f.checkAccountValues(ctx, resp)
	return nil
}

func (f *flow) accountOverview(ctx context.Context) error {
	uuids, err := f.brokerageUUIDs(ctx)
	if err != nil {
		return err
	}
	for _, uuid := range uuids {
		resp, err := f.gateway.AccountOverview(ctx, uuid)
		if err != nil {
			f.c.Hard(err, models.Record{"accountUuid": uuid})
			continue
		}
		f.received(resp)
		CheckAccountSummaryTags(f.c, resp, schema.AccountSummaryTags(f.svc))
		CheckAccountSummaryValues(f.c, resp)
		CheckAccountTags(f.c, resp, f.svc, f.registry)
		CheckUUIDs(f.c, resp)
		f.checkAccountValues(ctx, resp)
	}
	return nil
}

func (f *flow) completeView(ctx context.Context) error {
	resp, err := f.gateway.CompleteView(ctx)
	if err != nil {
		return err
	}
	f.received(resp)
	CheckNetAssetsSummaryTags(f.c, resp)
	CheckAccountSummaryTags(f.c, resp, schema.AccountSummaryTags(f.svc))
	CheckAccountTags(f.c, resp, f.svc, f.registry)
	CheckUUIDs(f.c, resp)

	CheckSummaryAlignment(f.c, resp)
	CheckNetAssetsTotal(f.c, resp)
	CheckAccountSummaryValues(f.c, resp)
	f.checkAccountValues(ctx, resp)
	f.checkNetAssetsBackend(ctx, resp)
	f.checkNetGainBackend(ctx, resp)
	return nil
}

func (f *flow) checkPortfolio(ctx context.Context, resp *response.Response, listView string, listTags schema.TagSet, fallbackAccount string) {
	CheckAccountSummaryTags(f.c, resp, schema.AccountSummaryTags(f.svc))
	CheckListViewTags(f.c, resp, listView, listTags)
	CheckAccountTags(f.c, resp, f.svc, f.registry)
	CheckPositionTags(f.c, resp)
	CheckInstrumentTags(f.c, resp)
	CheckUUIDs(f.c, resp)

	f.checkAccountValues(ctx, resp)
	f.checkPositionValues(ctx, resp)
	f.checkInstrumentValues(ctx, resp, fallbackAccount)
}

func (f *flow) allBrokerage(ctx context.Context) error {
	resp, err := f.gateway.AllBrokerage(ctx)
	if err != nil {
		return err
	}
	f.received(resp)
	f.checkPortfolio(ctx, resp, schema.ViewAccountPortfolioList, schema.AccountPortfolioList, "")
	return nil
}

func (f *flow) individual(ctx context.Context) error {
	uuids, err := f.brokerageUUIDs(ctx)
	if err != nil {
		return err
	}
	for _, uuid := range uuids {
		acct, err := uuidcodec.ParseAccountUUID(uuid)
		if err != nil {
			f.c.Hard(err, models.Record{"accountUuid": uuid})
			continue
		}
		resp, err := f.gateway.IndividualBrokerage(ctx, uuid)
		if err != nil {
			f.c.Hard(err, models.Record{"accountUuid": uuid})
			continue
		}
		f.received(resp)
		f.checkPortfolio(ctx, resp, schema.ViewPositionsList, schema.PositionList, acct.AccountID)
	}
	return nil
}

// taxLots requests the lots of the first positions of the all brokerage
// response, up to LotsMaxPositions.
func (f *flow) taxLots(ctx context.Context) error {
	all, err := f.gateway.AllBrokerage(ctx)
	if err != nil {
		return fmt.Errorf("all: %w", err)
	}

	requested := 0
	for _, p := range all.References(schema.RefPositions) {
		if requested >= f.opts.LotsMaxPositions {
			break
		}
		accountID := indexer.IDString(p["accountId"])
		if f.opts.skipped(accountID) {
			continue
		}
		requested++

		positionID := indexer.IDString(p["positionId"])
		resp, err := f.gateway.TaxLots(ctx, p.String("accountUuid"), positionID)
		if err != nil {
			f.c.Hard(err, p)
			continue
		}
		f.received(resp)
		CheckListViewTags(f.c, resp, schema.ViewPositionsLotsList, schema.PositionLotList)
		CheckTaxLotTags(f.c, resp)
		CheckUUIDs(f.c, resp)
		f.checkTaxLotValues(ctx, resp, accountID, positionID)
	}
	f.log.Debug("Lots requested", "positions", requested)
	return nil
}
