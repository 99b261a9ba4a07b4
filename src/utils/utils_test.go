package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 0.97, RoundFloat(0.97444, 2))
	assert.Equal(t, -1.24, RoundFloat(-1.2351, 2))
	assert.Equal(t, 3.0, RoundFloat(2.6, 0))
}

func TestSumFloats(t *testing.T) {
	assert.Equal(t, 0.0, SumFloats())
	assert.Equal(t, 6.5, SumFloats(1, 2.5, 3))
}

func TestFormatMDY(t *testing.T) {
	assert.Equal(t, "5/15/2031", FormatMDY("5", "15", "2031"))
	assert.Equal(t, "1/2/2030", FormatMDYOrNoData(1, 2, 2030))
	assert.Equal(t, NoData, FormatMDYOrNoData("0", "0", "0"))
}

func TestGenerateETag(t *testing.T) {
	a, err := GenerateETag(map[string]int{"a": 1})
	require.NoError(t, err)
	b, err := GenerateETag(map[string]int{"a": 1})
	require.NoError(t, err)
	c, err := GenerateETag(map[string]int{"a": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)

	_, err = GenerateETag(make(chan int))
	assert.Error(t, err)
}

func TestSendJSONError(t *testing.T) {
	rec := httptest.NewRecorder()

	SendJSONError(rec, "nope", http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "nope", body["error"])
}

func TestSendJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	SendJSON(rec, map[string]bool{"ok": true}, http.StatusAccepted)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}
