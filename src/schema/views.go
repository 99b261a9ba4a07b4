package schema

import "github.com/username/mgscheck/src/models"

// View object types.
const (
	ViewNetAssetsSummary     = "net_assets_summary"
	ViewNetGainSummary       = "net_gain_summary"
	ViewAccountSummary       = "account_summary"
	ViewAccountList          = "account_list"
	ViewPositionsLotsList    = "positions_lots_list"
	ViewAccountPortfolioList = "account_portfolio_list"
	ViewPositionsList        = "positions_list"
)

// Streamable ids and labels of the completeView summaries.
const (
	StreamNetAssets = "NET_ASSETS"
	StreamDaysGain  = "DAYS_GAIN"

	LabelNetAssets = "Net Assets"
	LabelDaysGain  = "Days Gain"
)

var (
	TypeData            = NewTagSet("type", "data")
	TypeDataCTAAction   = NewTagSet("type", "data", "cta", "action")
	NetAssetsSummary    = NewTagSet("account_uuids", "account_summary_label", "account_summary_streamable_value")
	AccountsSummary     = NewTagSet("account_uuid", "account_name", "account_detail_label", "account_detail_value", "account_additional_labels")
	AllBrokerageSummary = NewTagSet("account_detail_label", "account_detail_value", "account_additional_labels", "account_extra_details")
	IndividualSummary   = AllBrokerageSummary.With("account_uuid")

	AdditionalLabels = NewTagSet(
		"account_additional_label_title",
		"account_additional_label_streamable_value",
		"account_additional_label_value_detail",
	)
	// The Cash label carries no value detail.
	AdditionalLabelCash = NewTagSet("account_additional_label_title", "account_additional_label_streamable_value")

	StreamableValue = NewTagSet("initial", "local_field_name", "stream_id", "movement_type")

	PositionLotList      = NewTagSet("accountUuid", "position_lots")
	PositionList         = NewTagSet("accountUuid", "positions")
	AccountPortfolioList = NewTagSet("account_uuid", "positions")
	AccountList          = NewTagSet("account_uuids")
)

var viewTypes = map[models.Service][]string{
	models.ServiceCompleteView:    {ViewNetAssetsSummary, ViewNetGainSummary, ViewAccountSummary},
	models.ServiceAccountList:     {ViewAccountList},
	models.ServiceAccountOverview: {ViewAccountSummary},
	models.ServiceAllBrokerage:    {ViewAccountSummary, ViewAccountPortfolioList},
	models.ServiceIndividual:      {ViewAccountSummary, ViewPositionsList},
	models.ServiceTaxLots:         {ViewPositionsLotsList},
}

// ViewTypes lists the view types a service response must carry.
func ViewTypes(svc models.Service) []string {
	return viewTypes[svc]
}

// AccountSummaryTags returns the expected data tags of an account_summary
// view for svc.
func AccountSummaryTags(svc models.Service) TagSet {
	switch svc {
	case models.ServiceAllBrokerage:
		return AllBrokerageSummary
	case models.ServiceIndividual:
		return IndividualSummary
	}
	return AccountsSummary
}
