package models

import "fmt"

// Service names a gateway aggregation service. The string value is the
// service name used in request bodies and URL paths.
type Service string

const (
	ServiceAccountList     Service = "accountList"
	ServiceAccountOverview Service = "accountOverview"
	ServiceCompleteView    Service = "completeView"
	ServiceAllBrokerage    Service = "all"
	ServiceIndividual      Service = "individual"
	ServiceTaxLots         Service = "lots"
)

// Services lists every known service in run order.
var Services = []Service{
	ServiceAccountList,
	ServiceAccountOverview,
	ServiceCompleteView,
	ServiceAllBrokerage,
	ServiceIndividual,
	ServiceTaxLots,
}

// ParseService resolves a service name, accepting either the wire value or
// the upper-case constant name ("COMPLETEVIEW").
func ParseService(name string) (Service, error) {
	for _, s := range Services {
		if string(s) == name || s.Constant() == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown service %q", name)
}

// Constant returns the upper-case identifier used for view/reference type tables.
func (s Service) Constant() string {
	switch s {
	case ServiceAccountList:
		return "ACCOUNTLIST"
	case ServiceAccountOverview:
		return "ACCOUNTOVERVIEW"
	case ServiceCompleteView:
		return "COMPLETEVIEW"
	case ServiceAllBrokerage:
		return "ALLBROKERAGE"
	case ServiceIndividual:
		return "INDIVIDUAL"
	case ServiceTaxLots:
		return "TAXLOTS"
	}
	return ""
}

// IsPortfolio reports whether the service is served from the portfolio path.
func (s Service) IsPortfolio() bool {
	return s == ServiceAllBrokerage || s == ServiceIndividual || s == ServiceTaxLots
}

// AccountType is the account-type variant a schema descriptor applies to.
type AccountType string

const (
	AccountBrokerage AccountType = "brokerage"
	AccountBank      AccountType = "bank"
	AccountStockPlan AccountType = "stock_plan"
)

var AccountTypes = []AccountType{AccountBrokerage, AccountBank, AccountStockPlan}

func ParseAccountType(name string) (AccountType, error) {
	for _, t := range AccountTypes {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown account type %q", name)
}

// Category partitions an account schema's tags.
type Category string

const (
	CategoryDescription Category = "description"
	CategoryBalances    Category = "balances"
	CategoryChange      Category = "change"
	CategoryFlags       Category = "flags"
	CategorySpecial     Category = "special"
)

// Categories lists the five categories every descriptor must declare.
var Categories = []Category{
	CategoryDescription,
	CategoryBalances,
	CategoryChange,
	CategoryFlags,
	CategorySpecial,
}
