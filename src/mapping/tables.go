package mapping

// InstitutionMap resolves a backend institution number to its code.
var InstitutionMap = map[string]string{
	"666666":  "ADP",
	"1000001": "TELEBANK",
}

// InstitutionAccountType resolves an institution code to the gateway acctType.
var InstitutionAccountType = map[string]string{
	"ADP":      "Brokerage",
	"TELEBANK": "Bank",
	"OLINK":    "ESP",
}

const (
	StockPlanInstitution = "OLINK"
	ManagedAccountType   = "Managed"
)

// IRATypes are the backend AcctType values reported as isIRA.
var IRATypes = map[string]bool{
	"CONTRIBUTORY":         true,
	"BENF ESTATE IRA":      true,
	"BENF ROTH ESTATE IRA": true,
	"BENF ROTH TRUST IRA":  true,
	"BENF TRUST IRA":       true,
	"BENF MINOR IRA":       true,
	"BENF ROTH MINOR IRA":  true,
	"BENFIRA":              true,
	"BENFROTHIRA":          true,
	"CONVERSION ROTH IRA":  true,
	"IRA ROLLOVER":         true,
	"ROTH IRA MINORS":      true,
	"ROTHIRA":              true,
	"SARSEPIRA":            true,
	"SEPIRA":               true,
	"SIMPLE IRA":           true,
	"TRD IRA MINORS":       true,
	"COVERDELL ESA":        true,
	"IRA":                  true,
	"PROFIT SHARING":       true,
	"MONEY PURCHASE":       true,
	"INDIVIDUAL K":         true,
	"ROTH INDIVIDUAL K":    true,
}

// BalanceMap renames backend balance names to gateway tags. Unlisted names
// keep their backend name.
var BalanceMap = map[string]string{
	"CASH_AVAILABLE_FOR_WITHDRAWAL":   "cashAvailableForWithdrawal",
	"MARGIN_AVAILABLE_FOR_WITHDRAWAL": "marginAvailableForWithdrawal",
	"BUYPWR":                          "purchasingPower",
	"TOTAL_AVAILABLE_FOR_WITHDRAWAL":  "totalAvailableForWithdrawal",
	"NET_MARKET_VAL":                  "accountValue",
	"TOTAL_EQUITY":                    "totalEquity",
	"AVAIL_BALANCE":                   "availableBalance",
	"CASH_BALANCE":                    "totalBalance",
	"TOTAL_GRANT_BAL":                 "totalBalance",
}

// StreamingByAccountType is the accountStreaming value per acctType.
var StreamingByAccountType = map[string]bool{
	"Brokerage": true,
	"Managed":   true,
	"Bank":      false,
	"ESP":       false,
	"EAS":       false,
}

const (
	// MGSBalanceKey holds the renamed balances added to each GetAllBalances entry.
	MGSBalanceKey = "MGS-Balance"

	BondFactor       = "100.0"
	OptionMultiplier = 100
)

var (
	// Stock-plan money fields summed into the account balance.
	stockPlanMoneys = []string{"Sellable", "Exercisable", "Blocked", "PreExe", "PreStl", "UnsettledCash"}
	// Stock-plan fields that count towards the account value only.
	potentialBenefitMoneys = []string{"Unvested", "ReqAccept", "PendingRelease", "Deferred"}
)
