package verify

import (
	"context"
	"fmt"

	"github.com/username/mgscheck/src/compare"
	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/mapping"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/normalize"
	"github.com/username/mgscheck/src/response"
	"github.com/username/mgscheck/src/schema"
)

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, e := range items {
		out = append(out, indexer.IDString(e))
	}
	return out
}

func summaryView(c *compare.Context, resp *response.Response, typ string) (models.Record, bool) {
	view, ok := resp.Views(typ).First()
	if !ok {
		c.Fail(models.FailureStructural, fmt.Sprintf("no %s view in response", typ), nil)
	}
	return view, ok
}

func streamInitial(view models.Record) any {
	return asRecord(view["account_summary_streamable_value"])["initial"]
}

// CheckSummaryAlignment checks that net_assets_summary.account_uuids, the
// account_summary views and the reference accounts list the same accounts
// in the same order.
func CheckSummaryAlignment(c *compare.Context, resp *response.Response) {
	net, ok := summaryView(c, resp, schema.ViewNetAssetsSummary)
	if !ok {
		return
	}
	uuids := stringList(net["account_uuids"])
	summaries := resp.Views(schema.ViewAccountSummary)
	accounts := resp.References(schema.RefAccounts)

	c.Assert(len(uuids) == len(summaries) && len(summaries) == len(accounts),
		fmt.Sprintf("account uuids not matching with reference: %d uuids, %d summaries, %d accounts", len(uuids), len(summaries), len(accounts)))

	n := min(len(uuids), len(summaries), len(accounts))
	for i := 0; i < n; i++ {
		s, a := summaries[i], accounts[i]
		c.Assert(s.String("account_uuid") == a.String("accountUuid") && a.String("accountUuid") == uuids[i],
			"account_uuid is not matching\n"+compare.IDsMessage(a))
		c.Assert(s.String("account_name") == a.String("accountShortName"),
			"account_name and accountShortName is not matching\n"+compare.IDsMessage(a))
	}
}

// CheckNetAssetsTotal compares the net assets initial with the sum of the
// account_summary detail values.
func CheckNetAssetsTotal(c *compare.Context, resp *response.Response) {
	net, ok := summaryView(c, resp, schema.ViewNetAssetsSummary)
	if !ok {
		return
	}
	initial := streamInitial(net)
	if _, ok := normalize.Float(initial); !ok {
		c.Fail(models.FailureValue, fmt.Sprintf("net assets %q is not a dollar value", fmt.Sprint(initial)), nil)
		return
	}

	total := 0.0
	for _, s := range resp.Views(schema.ViewAccountSummary) {
		v, ok := normalize.Float(s["account_detail_value"])
		if !ok {
			c.Fail(models.FailureValue, fmt.Sprintf("account_detail_value %q is not a dollar value", fmt.Sprint(s["account_detail_value"])), s)
			continue
		}
		total += v
	}
	if err := compare.Floats(initial, total, c.Options.Tolerance); err != nil {
		c.Fail(models.FailureValue, fmt.Sprintf("Net assets: %v, calculated net assets: %v\n%v", initial, total, err), nil)
	}
}

// backendAccountValue returns the backend value an account contributes to
// net assets. Bank accounts report their available balance.
func (f *flow) backendAccountValue(ctx context.Context, account models.Record) (float64, error) {
	if account.String("acctType") == "Bank" {
		bal, err := f.accounts.AllBalances(ctx, account.String("accountId"))
		if err != nil {
			return 0, err
		}
		v, err := indexer.Get(bal, mapping.MGSBalanceKey, "AVAIL_BALANCE")
		if err != nil {
			return 0, err
		}
		return compare.ValueOrZero(v), nil
	}
	s2, err := f.accounts.Account(ctx, account.String("accountUuid"), f.svc)
	if err != nil {
		return 0, err
	}
	return compare.ValueOrZero(s2["accountValue"]), nil
}

// checkNetAssetsBackend compares the net assets initial with the sum of the
// backend values of every reference account.
func (f *flow) checkNetAssetsBackend(ctx context.Context, resp *response.Response) {
	net, ok := summaryView(f.c, resp, schema.ViewNetAssetsSummary)
	if !ok {
		return
	}
	total := 0.0
	for _, account := range resp.References(schema.RefAccounts) {
		if f.opts.skipped(account.String("accountId")) {
			continue
		}
		v, err := f.backendAccountValue(ctx, account)
		if err != nil {
			f.c.Hard(err, account)
			continue
		}
		f.log.Debug("Added account value", "accountId", account["accountId"], "value", v)
		total += v
	}
	if err := compare.Floats(streamInitial(net), total, f.c.Options.Tolerance); err != nil {
		f.c.Fail(models.FailureValue, fmt.Sprintf("Net assets: %v, S2 net assets: %v\n%v", streamInitial(net), total, err), nil)
	}
}

// checkNetGainBackend compares the net gain initial with the sum of the
// backend days gain of the accounts listed in net_gain_summary.
func (f *flow) checkNetGainBackend(ctx context.Context, resp *response.Response) {
	gain, ok := summaryView(f.c, resp, schema.ViewNetGainSummary)
	if !ok {
		return
	}
	listed := schema.NewTagSet(stringList(gain["account_uuids"])...)

	total := 0.0
	for _, account := range resp.References(schema.RefAccounts) {
		if f.opts.skipped(account.String("accountId")) || !listed.Has(account.String("accountUuid")) {
			continue
		}
		s2, err := f.accounts.Account(ctx, account.String("accountUuid"), f.svc)
		if err != nil {
			f.c.Hard(err, account)
			continue
		}
		total += compare.ValueOrZero(s2["daysGain"])
	}
	if err := compare.Floats(streamInitial(gain), total, f.c.Options.Tolerance); err != nil {
		f.c.Fail(models.FailureValue, fmt.Sprintf("Net gain: %v, S2 net gain: %v\n%v", streamInitial(gain), total, err), nil)
	}
}
