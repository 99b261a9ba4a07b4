package parsers

import (
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"

	"github.com/username/mgscheck/src/indexer"
	"github.com/username/mgscheck/src/response"
)

var ErrNotObject = errors.New("backend JSON payload is not an object")

type jsonParser struct{}

func NewJSONParser() Parser {
	return jsonParser{}
}

func (jsonParser) Parse(r io.Reader) (indexer.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read backend JSON: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse backend JSON: %w", response.ErrInvalidJSON)
	}
	n, ok := response.Value(gjson.ParseBytes(data)).(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return n, nil
}
