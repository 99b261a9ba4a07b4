package parsers

import (
	"fmt"
	"mime"
	"strings"
)

// GetParser picks a parser for a backend response content type.
func GetParser(contentType string) (Parser, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("bad content type %q: %w", contentType, err)
	}
	switch {
	case strings.HasSuffix(mediaType, "/xml"), strings.HasSuffix(mediaType, "+xml"):
		return NewXMLParser(), nil
	case strings.HasSuffix(mediaType, "/json"), strings.HasSuffix(mediaType, "+json"):
		return NewJSONParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for content type: %s", mediaType)
	}
}
