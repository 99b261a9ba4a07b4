// Package verify runs the conformance flows: it requests gateway services,
// checks response structure and tags, and compares values with records
// derived from the backend.
package verify

import (
	"fmt"
	"strconv"

	"github.com/username/mgscheck/src/compare"
	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/response"
	"github.com/username/mgscheck/src/schema"
	"github.com/username/mgscheck/src/uuidcodec"
)

// CheckTypes asserts every view and reference type expected for svc is present.
func CheckTypes(c *compare.Context, resp *response.Response, svc models.Service) {
	for _, typ := range schema.ViewTypes(svc) {
		c.Assert(resp.HasViewType(typ), fmt.Sprintf("view of type %q missing from %s response", typ, svc))
	}
	for _, typ := range schema.ReferenceTypes(svc) {
		c.Assert(resp.HasReferenceType(typ), fmt.Sprintf("reference of type %q missing from %s response", typ, svc))
	}
}

// IsLinkedStockPlan reports whether a non ESP account shares its accountId
// with another account of the response.
func IsLinkedStockPlan(resp *response.Response, account models.Record) bool {
	if account.String("acctType") == "ESP" {
		return false
	}
	return len(resp.References(schema.RefAccounts).Filter("accountId", account["accountId"])) > 1
}

// BrokerageAccounts returns the ADP accounts that are not linked to a stock plan.
func BrokerageAccounts(resp *response.Response) response.List {
	out := response.List{}
	for _, a := range resp.References(schema.RefAccounts).Filter("instType", "ADP") {
		if !IsLinkedStockPlan(resp, a) {
			out = append(out, a)
		}
	}
	return out
}

// AccountsOfType selects the reference accounts a descriptor of t applies to.
func AccountsOfType(resp *response.Response, t models.AccountType) response.List {
	switch t {
	case models.AccountBank:
		return resp.References(schema.RefAccounts).Filter("acctType", "Bank")
	case models.AccountStockPlan:
		return resp.References(schema.RefAccounts).Filter("acctType", "ESP")
	}
	return BrokerageAccounts(resp)
}

// CheckAccountTags checks every reference account against the tag set of
// its descriptor for svc.
func CheckAccountTags(c *compare.Context, resp *response.Response, svc models.Service, reg *schema.Registry) {
	for _, t := range reg.AccountTypes(svc) {
		d, err := reg.Get(svc, t)
		if err != nil {
			c.Hard(err, nil)
			continue
		}
		c.CheckObjectsTags(AccountsOfType(resp, t).Maps(), d.AccountTagsSet(), string(svc))
	}
}

func isBond(obj models.Record) bool {
	v, ok := obj["maturity"]
	return ok && v != nil && v != ""
}

// CheckPositionTags checks plain and bond positions separately. Bonds are
// the positions carrying a maturity.
func CheckPositionTags(c *compare.Context, resp *response.Response) {
	for _, p := range resp.References(schema.RefPositions) {
		if isBond(p) {
			c.CheckTags(p, schema.PositionBond, schema.RefPositions)
		} else {
			c.CheckTags(p, schema.Position, schema.RefPositions)
		}
	}
}

// CheckInstrumentTags checks plain and bond instruments separately. Bonds
// are the instruments carrying a maturity.
func CheckInstrumentTags(c *compare.Context, resp *response.Response) {
	for _, i := range resp.References(schema.RefInstruments) {
		if isBond(i) {
			c.CheckTags(i, schema.AccountInstrumentBond, schema.RefInstruments)
		} else {
			c.CheckTags(i, schema.AccountInstrument, schema.RefInstruments)
		}
	}
}

func CheckTaxLotTags(c *compare.Context, resp *response.Response) {
	c.CheckObjectsTags(resp.References(schema.RefTaxLots).Maps(), schema.TaxLotTags, schema.RefTaxLots)
}

// CheckUUIDs checks the fields encoded in account uuids against the
// reference accounts and positions carrying them.
func CheckUUIDs(c *compare.Context, resp *response.Response) {
	for _, a := range resp.References(schema.RefAccounts) {
		u, err := uuidcodec.ParseAccountUUID(a.String("accountUuid"))
		if err != nil {
			c.Hard(err, a)
			continue
		}
		c.Assert(u.AccountID == a.String("accountId"), "accountId tag is wrong in accounts\n"+compare.IDsMessage(a))
		c.Assert(u.AcctType == a.String("acctType"), "acctType tag is wrong in accounts\n"+compare.IDsMessage(a))
		c.Assert(u.InstType == a.String("instType"), "instType tag is wrong in accounts\n"+compare.IDsMessage(a))
	}
	for _, p := range resp.References(schema.RefPositions) {
		u, err := uuidcodec.ParseAccountUUID(p.String("accountUuid"))
		if err != nil {
			c.Hard(err, p)
			continue
		}
		c.Assert(u.AccountID == indexer.IDString(p["accountId"]), "accountId tag is wrong in positions\n"+compare.IDsMessage(p))
	}
}

func asList(v any) []models.Record {
	var out []models.Record
	items, _ := v.([]any)
	for _, e := range items {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func asRecord(v any) models.Record {
	m, _ := v.(map[string]any)
	return m
}

// CheckAccountSummaryTags checks account_summary views, their additional
// labels and the streamable values those labels carry. The Cash label has
// no value detail.
func CheckAccountSummaryTags(c *compare.Context, resp *response.Response, expected schema.TagSet) {
	for _, summary := range resp.Views(schema.ViewAccountSummary) {
		c.CheckTags(summary, expected, schema.ViewAccountSummary)
		for _, label := range asList(summary["account_additional_labels"]) {
			if label["account_additional_label_title"] == "Cash" {
				c.CheckTags(label, schema.AdditionalLabelCash, "account_additional_labels")
			} else {
				c.CheckTags(label, schema.AdditionalLabels, "account_additional_labels")
			}
			stream := asRecord(label["account_additional_label_streamable_value"])
			for _, key := range stream.Keys() {
				c.Assert(schema.StreamableValue.Has(key), fmt.Sprintf("unexpected streamable value key %q", key))
			}
		}
	}
}

// CheckNetAssetsSummaryTags checks the net_assets_summary view object, its
// data and its streamable value.
func CheckNetAssetsSummaryTags(c *compare.Context, resp *response.Response) {
	for _, view := range resp.ViewObjects(schema.ViewNetAssetsSummary) {
		c.CheckTags(view, schema.TypeDataCTAAction, schema.ViewNetAssetsSummary)
		data := asRecord(view["data"])
		c.CheckTags(data, schema.NetAssetsSummary, schema.ViewNetAssetsSummary+".data")
		c.CheckTags(asRecord(data["account_summary_streamable_value"]), schema.StreamableValue, "account_summary_streamable_value")
	}
}

// CheckListViewTags checks list-like views (account_list, positions lists)
// against the data tags expected for them.
func CheckListViewTags(c *compare.Context, resp *response.Response, typ string, expected schema.TagSet) {
	for _, view := range resp.ViewObjects(typ) {
		c.CheckTags(view, schema.TypeData, typ)
		c.CheckTags(asRecord(view["data"]), expected, typ+".data")
	}
}

func initial(label models.Record) any {
	return asRecord(label["account_additional_label_streamable_value"])["initial"]
}

// display renders a response value the way the gateway prints it inside
// combined labels. Integral floats keep one decimal.
func display(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		for _, r := range s {
			if r == '.' {
				return s
			}
		}
		return s + ".0"
	}
	return fmt.Sprint(v)
}

// CheckAccountSummaryValues compares the label initials of each
// account_summary with its reference account: "<daysGain> (<daysGainPercent>)",
// "<totalGain> (<totalGainPercent>)" and the Cash initial equal to
// ledgerAccountValue.
func CheckAccountSummaryValues(c *compare.Context, resp *response.Response) {
	accounts := resp.References(schema.RefAccounts)
	for i, summary := range resp.Views(schema.ViewAccountSummary) {
		account, ok := accounts.Filter("accountUuid", summary["account_uuid"]).First()
		if !ok {
			if i >= len(accounts) {
				c.Fail(models.FailureValue, "no reference account for account_summary", summary)
				continue
			}
			account = accounts[i]
		}

		labels := asList(summary["account_additional_labels"])
		if len(labels) < 2 {
			c.Fail(models.FailureTags, fmt.Sprintf("account_summary has %d additional labels, expected at least 2", len(labels)), account)
			continue
		}
		days := fmt.Sprintf("%s (%s)", display(account["daysGain"]), display(account["daysGainPercent"]))
		c.Assert(initial(labels[0]) == days,
			fmt.Sprintf("days gain label %q does not match %q\n%s", display(initial(labels[0])), days, compare.IDsMessage(account)))

		total := fmt.Sprintf("%s (%s)", display(account["totalGain"]), display(account["totalGainPercent"]))
		c.Assert(initial(labels[1]) == total,
			fmt.Sprintf("total gain label %q does not match %q\n%s", display(initial(labels[1])), total, compare.IDsMessage(account)))

		if len(labels) > 2 {
			cash := initial(labels[2])
			c.Assert(display(cash) == display(account["ledgerAccountValue"]),
				fmt.Sprintf("cash label %q does not match ledgerAccountValue %q\n%s", display(cash), display(account["ledgerAccountValue"]), compare.IDsMessage(account)))
		}
	}
}
