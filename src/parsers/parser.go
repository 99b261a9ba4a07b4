package parsers

import (
	"io"

	"github.com/username/mgscheck/src/indexer"
)

// Parser turns one backend payload into a nested map.
type Parser interface {
	Parse(r io.Reader) (indexer.Node, error)
}
