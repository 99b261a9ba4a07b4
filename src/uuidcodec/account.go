package uuidcodec

// AccountUUID is a decoded account uuid.
type AccountUUID struct {
	AccountID          string
	AcctType           string
	InstType           string
	InstNumber         string
	Symbol             string
	ManagedAccountType string
}

func NewAccountUUID(accountID, acctType, instType, instNumber string) AccountUUID {
	return AccountUUID{
		AccountID:          accountID,
		AcctType:           acctType,
		InstType:           instType,
		InstNumber:         instNumber,
		Symbol:             Placeholder,
		ManagedAccountType: Placeholder,
	}
}

func ParseAccountUUID(token string) (AccountUUID, error) {
	f, err := Decode(token)
	if err != nil {
		return AccountUUID{}, err
	}
	return AccountUUID{
		AccountID:          f[0],
		AcctType:           f[1],
		InstType:           f[2],
		InstNumber:         f[3],
		Symbol:             f[4],
		ManagedAccountType: f[5],
	}, nil
}

func (a AccountUUID) Fields() Fields {
	return Fields{a.AccountID, a.AcctType, a.InstType, a.InstNumber, orPlaceholder(a.Symbol), orPlaceholder(a.ManagedAccountType)}
}

func (a AccountUUID) Encode() (string, error) {
	return Encode(a.Fields())
}

func (a AccountUUID) IsStockPlan() bool { return a.AcctType == "ESP" }
func (a AccountUUID) IsBank() bool      { return a.AcctType == "Bank" }
func (a AccountUUID) IsEAS() bool       { return a.AcctType == "EAS" }

// IsManaged reports whether the managed account marker is set.
func (a AccountUUID) IsManaged() bool {
	return a.ManagedAccountType != "" && a.ManagedAccountType != Placeholder
}

// HasSymbol reports whether the uuid names a stock-plan symbol.
func (a AccountUUID) HasSymbol() bool {
	return a.Symbol != "" && a.Symbol != Placeholder
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
