package parsers

import (
	"fmt"
	"io"
	"strings"

	"github.com/clbanning/mxj/v2"

	"github.com/username/mgscheck/src/indexer"
)

type xmlParser struct{}

// NewXMLParser returns a parser that maps XML elements to nested maps.
// Repeated elements become lists, attributes are keyed with a leading "-"
// and values are kept as strings.
func NewXMLParser() Parser {
	return xmlParser{}
}

func (xmlParser) Parse(r io.Reader) (indexer.Node, error) {
	m, err := mxj.NewMapXmlReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse backend XML: %w", err)
	}
	return normalizeXML(map[string]any(m)).(indexer.Node), nil
}

// normalizeXML converts mxj's nested mxj.Map values to plain maps so the
// indexer sees one object type.
func normalizeXML(v any) any {
	switch t := v.(type) {
	case mxj.Map:
		return normalizeXML(map[string]any(t))
	case map[string]any:
		out := make(indexer.Node, len(t))
		for k, e := range t {
			out[k] = normalizeXML(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeXML(e)
		}
		return out
	}
	return v
}

// Unwrap strips a single "...Response" root element. SOAP envelopes are
// returned as they are.
func Unwrap(n indexer.Node) indexer.Node {
	if len(n) != 1 {
		return n
	}
	for k, v := range n {
		name := k
		if i := strings.LastIndexByte(k, ':'); i >= 0 {
			name = k[i+1:]
		}
		inner, ok := v.(indexer.Node)
		if ok && strings.HasSuffix(name, "Response") {
			return inner
		}
	}
	return n
}
