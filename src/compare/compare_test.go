package compare

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/models"
	"github.com/username/mgscheck/src/schema"
)

func TestTags(t *testing.T) {
	res := Tags(schema.NewTagSet("a", "b"), schema.NewTagSet("a", "b", "c"))
	assert.False(t, res.Passed())
	assert.Equal(t, []string{"c"}, res.Missing)
	assert.Empty(t, res.Extra)

	res = Tags(schema.NewTagSet("a", "b", "x"), schema.NewTagSet("a", "b"))
	assert.True(t, res.Passed(), "extra tags are allowed")
	assert.Equal(t, []string{"x"}, res.Extra)

	res = Tags(schema.NewTagSet("a"), schema.NewTagSet("a", "b", "c"))
	assert.Equal(t, []string{"b", "c"}, res.Missing, "all missing tags are reported")
}

func TestEquals(t *testing.T) {
	opts := DefaultOptions()
	tests := map[string]struct {
		gateway, backend any
		wantErr          bool
	}{
		"both nil":           {gateway: nil, backend: nil},
		"gateway nil":        {gateway: nil, backend: "x", wantErr: true},
		"backend nil":        {gateway: "x", backend: nil, wantErr: true},
		"same string":        {gateway: "CASH", backend: "CASH"},
		"different string":   {gateway: "CASH", backend: "MARGIN", wantErr: true},
		"EAS alias":          {gateway: "EAS", backend: "Brokerage"},
		"EAS not bank":       {gateway: "EAS", backend: "Bank", wantErr: true},
		"bool text":          {gateway: "true", backend: true},
		"int kinds":          {gateway: 3, backend: int64(3)},
		"maps":               {gateway: map[string]any{"a": true}, backend: map[string]any{"a": true}},
		"different maps":     {gateway: map[string]any{"a": true}, backend: map[string]any{"a": false}, wantErr: true},
		"nested numbers":     {gateway: map[string]any{"day": int64(23)}, backend: map[string]any{"day": 23.0}},
		"nested key missing": {gateway: map[string]any{"day": int64(23)}, backend: map[string]any{"day": 23.0, "year": 2026.0}, wantErr: true},
		"string versus int":  {gateway: "3", backend: 3, wantErr: true},
		"currency formatted": {gateway: "$1.00", backend: 1.0},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := Equals(test.gateway, test.backend, opts)
			if test.wantErr {
				assert.ErrorIs(t, err, ErrMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEquals_NoAliases(t *testing.T) {
	assert.Error(t, Equals("EAS", "Brokerage", Options{}))
}

func TestFloats(t *testing.T) {
	tests := map[string]struct {
		gateway, backend any
		tolerance        float64
		wantErr          bool
	}{
		"both zero":              {gateway: 0.0, backend: 0.0, tolerance: 0.05},
		"absolute near zero":     {gateway: 0.03, backend: 0.0, tolerance: 0.05},
		"absolute over":          {gateway: 0.06, backend: 0.0, tolerance: 0.05, wantErr: true},
		"relative at tolerance":  {gateway: 105, backend: 100, tolerance: 0.05},
		"relative over":          {gateway: 105, backend: 100, tolerance: 0.04, wantErr: true},
		"negative backend":       {gateway: -105.0, backend: -100.0, tolerance: 0.05},
		"negative backend over":  {gateway: -120.0, backend: -100.0, tolerance: 0.05, wantErr: true},
		"currency string":        {gateway: "$10,100,003.85", backend: 10100003.85, tolerance: 0.05},
		"percent string":         {gateway: "+26.47%", backend: "26.47", tolerance: 0.05},
		"placeholder gateway":    {gateway: "--", backend: 1.0, tolerance: 0.05, wantErr: true},
		"placeholder backend":    {gateway: 1.0, backend: "N/A", tolerance: 0.05, wantErr: true},
		"nil gateway":            {gateway: nil, backend: 1.0, tolerance: 0.05, wantErr: true},
		"zero against small gap": {gateway: 0, backend: 0.04, tolerance: 0.05},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := Floats(test.gateway, test.backend, test.tolerance)
			if test.wantErr {
				assert.ErrorIs(t, err, ErrMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckValues_SkipsGatewayOnlyKeys(t *testing.T) {
	c := NewContext("accounts", DefaultOptions())

	CheckValues(c, map[string]any{"x": 1, "y": 2}, map[string]any{"x": 1})

	assert.True(t, c.Passed())
	assert.NoError(t, c.Err())
}

func TestCheckValues_AccountScenario(t *testing.T) {
	gateway := map[string]any{
		"accountId":          "63477062",
		"acctType":           "Brokerage",
		"daysGain":           "--",
		"ledgerAccountValue": "$10,100,003.85",
	}
	backend := map[string]any{
		"accountId":          "63477062",
		"ledgerAccountValue": 10100003.85,
	}
	c := NewContext("accounts", DefaultOptions())

	CheckValues(c, gateway, backend)

	assert.Empty(t, c.Failures())
}

func TestCheckValues_AccumulatesAllFailures(t *testing.T) {
	gateway := map[string]any{
		"accountId":    "63477062",
		"accountMode":  "CASH",
		"accountValue": "$200.00",
		"daysGain":     "--",
	}
	backend := map[string]any{
		"accountMode":  "MARGIN",
		"accountValue": 100.0,
		"daysGain":     5.0,
		"totalGain":    1.0,
	}
	c := NewContext("accounts", DefaultOptions())

	CheckValues(c, gateway, backend)

	failures := c.Failures()
	require.Len(t, failures, 4)
	keys := make([]string, 0, len(failures))
	for _, f := range failures {
		keys = append(keys, f.Key)
		assert.Equal(t, models.FailureValue, f.Kind)
		assert.False(t, f.Hard)
		assert.Equal(t, "accountId:63477062\n", f.IDs)
	}
	assert.Equal(t, []string{"accountMode", "accountValue", "daysGain", "totalGain"}, keys)

	err := c.Err()
	var ae *AssertionError
	require.True(t, errors.As(err, &ae))
	assert.Len(t, ae.Failures, 4)
	assert.Contains(t, err.Error(), "Test not passed with 4 assertion fails:")
}

func TestCheckValues_AliasOption(t *testing.T) {
	c := NewContext("accounts", Options{Tolerance: 0.05, Aliases: map[string]string{"EAS": "Brokerage"}})

	CheckValues(c, map[string]any{"acctType": "EAS"}, map[string]any{"acctType": "Brokerage"})

	assert.True(t, c.Passed())
}

func TestViewToReference(t *testing.T) {
	view := map[string]any{"symbol": "ETFC", "lastPrice": "$1.00", "skipMe": 1}
	ref := map[string]any{"symbol": "ETFC", "lastPrice": "$1.00", "positionId": "9"}

	c := NewContext("views", DefaultOptions())
	ViewToReference(c, view, ref, "skipMe")
	assert.True(t, c.Passed())

	c = NewContext("views", DefaultOptions())
	ViewToReference(c, map[string]any{"symbol": "X", "missing": 1}, ref)
	require.Len(t, c.Failures(), 2)
	assert.Equal(t, "missing", c.Failures()[0].Key)
	assert.Equal(t, "symbol", c.Failures()[1].Key)
}

func TestContext_Hard(t *testing.T) {
	c := NewContext("positions", DefaultOptions())

	c.Hard(&indexer.StructuralError{Path: "Output.PositionList"}, map[string]any{"positionId": "9"})
	c.Hard(fmt.Errorf("backend call failed"), nil)

	require.Len(t, c.Failures(), 2)
	assert.True(t, c.Failures()[0].Hard)
	assert.Equal(t, models.FailureStructural, c.Failures()[0].Kind)
	assert.Equal(t, "positionId:9\n", c.Failures()[0].IDs)
	assert.Equal(t, models.FailureRequest, c.Failures()[1].Kind)
	assert.Equal(t, "positions", c.Failures()[1].Label)
}

func TestContext_CheckTags(t *testing.T) {
	c := NewContext("accountList", DefaultOptions())

	c.CheckObjectsTags([]map[string]any{
		{"accountId": "1", "acctType": "Bank"},
		{"accountId": "2"},
	}, schema.NewTagSet("accountId", "acctType"), "accountList")

	require.Len(t, c.Failures(), 1)
	assert.Equal(t, models.FailureTags, c.Failures()[0].Kind)
	assert.Contains(t, c.Failures()[0].Message, "Missing tags:[acctType]")
	assert.Equal(t, "accountId:2\n", c.Failures()[0].IDs)
}

func TestContext_Assert(t *testing.T) {
	c := NewContext("completeView", DefaultOptions())

	assert.True(t, c.Assert(true, "fine"))
	assert.False(t, c.Assert(false, "account_uuid is not matching"))

	require.Len(t, c.Failures(), 1)
	assert.Equal(t, "completeView: account_uuid is not matching", c.Failures()[0].String())
}

func TestIDsMessage(t *testing.T) {
	msg := IDsMessage(map[string]any{
		"symbol":     "ETFC",
		"accountId":  "63477062",
		"positionId": "",
		"other":      "x",
	})
	assert.Equal(t, "accountId:63477062\nsymbol:ETFC\n", msg)

	assert.Equal(t, "No ids found in object!", IDsMessage(map[string]any{"a": 1}))
}
