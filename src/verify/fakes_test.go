package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/username/mgscheck/src/compare"
	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/mapping"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/response"
	"github.com/username/mgscheck/src/schema"
	"github.com/username/mgscheck/src/services"
	"github.com/username/mgscheck/src/uuidcodec"
)

const userID = "user1"

// fakeGateway serves canned responses keyed by "service[:arg...]".
type fakeGateway struct {
	mu        sync.Mutex
	session   *services.Session
	responses map[string]*response.Response
	errs      map[string]error
	logins    int
	calls     []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		session:   &services.Session{Token: "tok", UserID: userID, UserName: "tester"},
		responses: map[string]*response.Response{},
		errs:      map[string]error{},
	}
}

func callKey(svc models.Service, args ...string) string {
	return strings.Join(append([]string{string(svc)}, args...), ":")
}

func (g *fakeGateway) set(resp *response.Response, svc models.Service, args ...string) {
	g.responses[callKey(svc, args...)] = resp
}

func (g *fakeGateway) get(svc models.Service, args ...string) (*response.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := callKey(svc, args...)
	g.calls = append(g.calls, key)
	if err, ok := g.errs[key]; ok {
		return nil, err
	}
	if resp, ok := g.responses[key]; ok {
		return resp, nil
	}
	return nil, fmt.Errorf("no canned response for %s", key)
}

func (g *fakeGateway) Login(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logins++
	g.session = &services.Session{Token: "tok", UserID: userID, UserName: "tester"}
	return nil
}

func (g *fakeGateway) Session() *services.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

func (g *fakeGateway) Post(_ context.Context, call services.Call) (*response.Response, error) {
	return g.get(call.Service)
}

func (g *fakeGateway) AccountList(context.Context) (*response.Response, error) {
	return g.get(models.ServiceAccountList)
}

func (g *fakeGateway) AccountOverview(_ context.Context, uuid string) (*response.Response, error) {
	return g.get(models.ServiceAccountOverview, uuid)
}

func (g *fakeGateway) CompleteView(context.Context) (*response.Response, error) {
	return g.get(models.ServiceCompleteView)
}

func (g *fakeGateway) AllBrokerage(context.Context) (*response.Response, error) {
	return g.get(models.ServiceAllBrokerage)
}

func (g *fakeGateway) IndividualBrokerage(_ context.Context, uuid string) (*response.Response, error) {
	return g.get(models.ServiceIndividual, uuid)
}

func (g *fakeGateway) TaxLots(_ context.Context, uuid, positionID string) (*response.Response, error) {
	return g.get(models.ServiceTaxLots, uuid, positionID)
}

// fakeBackend decodes the mapping fixtures on every call, so concurrent
// flows never share a node.
type fakeBackend struct {
	t     *testing.T
	mu    sync.Mutex
	errs  map[string]error
	calls map[string]int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	return &fakeBackend{t: t, errs: map[string]error{}, calls: map[string]int{}}
}

func (b *fakeBackend) load(service, name string) (indexer.Node, error) {
	b.mu.Lock()
	b.calls[service]++
	err := b.errs[service]
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile("../mapping/testdata/" + name)
	if err != nil {
		return nil, err
	}
	var n indexer.Node
	return n, json.Unmarshal(data, &n)
}

func (b *fakeBackend) AcctCommonGet(context.Context, string) (indexer.Node, error) {
	return b.load("AcctCommonGet", "acctcommon.json")
}

func (b *fakeBackend) GetAllBalances(context.Context, string) (indexer.Node, error) {
	return b.load("GetAllBalances", "allbalances.json")
}

func (b *fakeBackend) GetPortfolioTotals(context.Context, string, string) (indexer.Node, error) {
	return b.load("GetPortfolioTotals", "totals.json")
}

func (b *fakeBackend) SPUserBalances(context.Context, string) (indexer.Node, error) {
	return b.load("SPUserBalances", "spbalances.json")
}

func (b *fakeBackend) GetPortfolioInfo(context.Context, string, string) (indexer.Node, error) {
	return b.load("GetPortfolioInfo", "portfolio.json")
}

func (b *fakeBackend) GetPositionLots(context.Context, string, string, string) (indexer.Node, error) {
	return b.load("GetPositionLots", "lots.json")
}

func (b *fakeBackend) ViewPortfolio(context.Context, string, string) (indexer.Node, error) {
	return b.load("ViewPortfolio", "watchlist.json")
}

func (b *fakeBackend) GetQuote(context.Context, string) (indexer.Node, error) {
	return b.load("GetQuote", "homewidget.json")
}

func encodeUUID(t *testing.T, a uuidcodec.AccountUUID) string {
	t.Helper()
	s, err := a.Encode()
	require.NoError(t, err)
	return s
}

func brokerageUUID(t *testing.T) string {
	return encodeUUID(t, uuidcodec.NewAccountUUID("63477062", "Brokerage", "ADP", "666666"))
}

func bankUUID(t *testing.T) string {
	return encodeUUID(t, uuidcodec.NewAccountUUID("83851862", "Bank", "TELEBANK", "1000001"))
}

// roundTrip passes rec through JSON the way a gateway response would carry it.
func roundTrip(t *testing.T, rec models.Record) models.Record {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	out, ok := response.Value(gjson.ParseBytes(data)).(map[string]any)
	require.True(t, ok)
	return out
}

func zeros(tags schema.TagSet) models.Record {
	rec := models.Record{}
	for tag := range tags {
		rec[tag] = 0
	}
	return rec
}

type ref struct {
	typ  string
	data []models.Record
}

func view(typ string, data any) map[string]any {
	return map[string]any{"type": typ, "data": data, "cta": map[string]any{}, "action": map[string]any{}}
}

// mobile renders a gateway response from views and reference blocks.
func mobile(t *testing.T, views []map[string]any, refs ...ref) *response.Response {
	t.Helper()
	references := []map[string]any{}
	for _, r := range refs {
		references = append(references, map[string]any{"type": r.typ, "data": r.data})
	}
	if views == nil {
		views = []map[string]any{}
	}
	raw, err := json.Marshal(map[string]any{
		"mobile_response": map[string]any{"views": views, "references": references},
	})
	require.NoError(t, err)
	resp, err := response.Parse(raw)
	require.NoError(t, err)
	return resp
}

// fixtures builds gateway objects that agree with the mapping fixtures.
type fixtures struct {
	t   *testing.T
	reg *schema.Registry
	am  *mapping.AccountMap
	pm  *mapping.PositionMap
}

func newFixtures(t *testing.T) *fixtures {
	b := newFakeBackend(t)
	info, err := b.GetPortfolioInfo(context.Background(), userID, "63477062")
	require.NoError(t, err)
	pm, err := mapping.NewPositionMap(info)
	require.NoError(t, err)
	return &fixtures{
		t:   t,
		reg: schema.Default(),
		am:  mapping.NewAccountMap(b, userID, nil),
		pm:  pm,
	}
}

// account returns the reference account the gateway should send for uuid:
// every expected tag, with the mapped values where the backend has one.
func (f *fixtures) account(svc models.Service, uuid string) models.Record {
	acct, err := uuidcodec.ParseAccountUUID(uuid)
	require.NoError(f.t, err)
	desc, err := f.reg.Get(svc, mapping.AccountTypeOf(acct))
	require.NoError(f.t, err)
	s2, err := f.am.Account(context.Background(), uuid, svc)
	require.NoError(f.t, err)
	return roundTrip(f.t, desc.EmptyAccount().Merge(s2))
}

func (f *fixtures) position(id, accountUUID string) models.Record {
	s2, err := f.pm.Position(id)
	require.NoError(f.t, err)
	inst, err := f.pm.Instrument(id)
	require.NoError(f.t, err)
	rec := zeros(schema.PositionTagsFor(inst.String("typeCode"))).Merge(s2)
	rec["accountUuid"] = accountUUID
	return roundTrip(f.t, rec)
}

func (f *fixtures) instrument(id string) models.Record {
	s2, err := f.pm.Instrument(id)
	require.NoError(f.t, err)
	return roundTrip(f.t, zeros(schema.InstrumentTagsFor(s2.String("typeCode"))).Merge(s2))
}

func label(title string, initial any) map[string]any {
	l := map[string]any{
		"account_additional_label_title": title,
		"account_additional_label_streamable_value": map[string]any{
			"initial":          initial,
			"local_field_name": "x",
			"stream_id":        "y",
			"movement_type":    "z",
		},
	}
	if title != "Cash" {
		l["account_additional_label_value_detail"] = ""
	}
	return l
}

// summary renders the account_summary svc returns for a reference account,
// with labels consistent with the account values.
func summary(svc models.Service, account models.Record, detailValue string) map[string]any {
	labels := []any{
		label("Day's Gain", fmt.Sprintf("%s (%s)", display(account["daysGain"]), display(account["daysGainPercent"]))),
		label("Total Gain", fmt.Sprintf("%s (%s)", display(account["totalGain"]), display(account["totalGainPercent"]))),
	}
	if account.String("acctType") != "Bank" {
		labels = append(labels, label("Cash", account["ledgerAccountValue"]))
	}
	s := map[string]any{
		"account_detail_label":      "Account Value",
		"account_detail_value":      detailValue,
		"account_additional_labels": labels,
	}
	switch svc {
	case models.ServiceAllBrokerage:
		s["account_extra_details"] = map[string]any{}
	case models.ServiceIndividual:
		s["account_extra_details"] = map[string]any{}
		s["account_uuid"] = account["accountUuid"]
	default:
		s["account_uuid"] = account["accountUuid"]
		s["account_name"] = account["accountShortName"]
	}
	return s
}

func netSummary(uuids []string, initial string) map[string]any {
	return map[string]any{
		"account_uuids":         uuids,
		"account_summary_label": schema.LabelNetAssets,
		"account_summary_streamable_value": map[string]any{
			"initial":          initial,
			"local_field_name": "netAssets",
			"stream_id":        schema.StreamNetAssets,
			"movement_type":    "none",
		},
	}
}

func gainSummary(uuids []string, initial string) map[string]any {
	return map[string]any{
		"account_uuids":         uuids,
		"account_summary_label": schema.LabelDaysGain,
		"account_summary_streamable_value": map[string]any{
			"initial":          initial,
			"local_field_name": "daysGain",
			"stream_id":        schema.StreamDaysGain,
			"movement_type":    "none",
		},
	}
}

// scenario holds a gateway whose responses all agree with the backend
// fixtures.
type scenario struct {
	*fixtures
	gateway   *fakeGateway
	backend   *fakeBackend
	brokerage string
	bank      string
}

var positionIDs = []string{"9001", "9002", "9003"}

func newScenario(t *testing.T) *scenario {
	f := newFixtures(t)
	s := &scenario{
		fixtures:  f,
		gateway:   newFakeGateway(),
		backend:   newFakeBackend(t),
		brokerage: brokerageUUID(t),
		bank:      bankUUID(t),
	}
	g, b, k := s.gateway, s.brokerage, s.bank

	g.set(mobile(t, []map[string]any{view(schema.ViewAccountList, map[string]any{"account_uuids": []string{b, k}})},
		ref{schema.RefAccounts, []models.Record{f.account(models.ServiceAccountList, b), f.account(models.ServiceAccountList, k)}},
	), models.ServiceAccountList)

	overview := f.account(models.ServiceAccountOverview, b)
	g.set(mobile(t, []map[string]any{view(schema.ViewAccountSummary, summary(models.ServiceAccountOverview, overview, "$10,100,003.85"))},
		ref{schema.RefAccounts, []models.Record{overview}},
	), models.ServiceAccountOverview, b)

	cvBrokerage := f.account(models.ServiceCompleteView, b)
	cvBank := f.account(models.ServiceCompleteView, k)
	g.set(mobile(t, []map[string]any{
		view(schema.ViewNetAssetsSummary, netSummary([]string{b, k}, "$10,102,503.85")),
		view(schema.ViewNetGainSummary, gainSummary([]string{b}, "12.50")),
		view(schema.ViewAccountSummary, summary(models.ServiceCompleteView, cvBrokerage, "$10,100,003.85")),
		view(schema.ViewAccountSummary, summary(models.ServiceCompleteView, cvBank, "$2,500.00")),
	}, ref{schema.RefAccounts, []models.Record{cvBrokerage, cvBank}}), models.ServiceCompleteView)

	var positions, instruments []models.Record
	for _, id := range positionIDs {
		positions = append(positions, f.position(id, b))
		instruments = append(instruments, f.instrument(id))
	}

	all := f.account(models.ServiceAllBrokerage, b)
	g.set(mobile(t, []map[string]any{
		view(schema.ViewAccountSummary, summary(models.ServiceAllBrokerage, all, "$10,100,003.85")),
		view(schema.ViewAccountPortfolioList, map[string]any{"account_uuid": b, "positions": positionIDs}),
	},
		ref{schema.RefAccounts, []models.Record{all}},
		ref{schema.RefPositions, positions},
		ref{schema.RefInstruments, instruments},
	), models.ServiceAllBrokerage)

	individual := f.account(models.ServiceIndividual, b)
	g.set(mobile(t, []map[string]any{
		view(schema.ViewAccountSummary, summary(models.ServiceIndividual, individual, "$10,100,003.85")),
		view(schema.ViewPositionsList, map[string]any{"accountUuid": b, "positions": positionIDs}),
	},
		ref{schema.RefAccounts, []models.Record{individual}},
		ref{schema.RefPositions, positions},
		ref{schema.RefInstruments, instruments},
	), models.ServiceIndividual, b)

	g.set(mobile(t, []map[string]any{
		view(schema.ViewPositionsLotsList, map[string]any{"accountUuid": b, "position_lots": []string{"L1"}}),
	},
		ref{schema.RefPositions, positions[:1]},
		ref{schema.RefInstruments, instruments[:1]},
		ref{schema.RefTaxLots, []models.Record{f.taxLot("L1")}},
	), models.ServiceTaxLots, b, "9001")
	return s
}

func (f *fixtures) taxLot(id string) models.Record {
	raw, err := newFakeBackend(f.t).GetPositionLots(context.Background(), userID, "63477062", "9001")
	require.NoError(f.t, err)
	lm, err := mapping.NewTaxLotMap(raw)
	require.NoError(f.t, err)
	s2, err := lm.TaxLot(id)
	require.NoError(f.t, err)
	return roundTrip(f.t, zeros(schema.TaxLotTags).Merge(s2))
}

func (s *scenario) verifier() *Verifier {
	return NewVerifier(s.gateway, s.backend, testOptions())
}

func testOptions() Options {
	return Options{Compare: compare.DefaultOptions(), LotsMaxPositions: 1}
}

func failureKeys(fs []models.Failure) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.Key)
	}
	return out
}
