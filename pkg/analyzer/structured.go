package analyzer

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractStructuredData returns every JSON-LD object found in
// application/ld+json script blocks. Top-level arrays are flattened one
// level; non-object elements and unparsable blocks are dropped.
func ExtractStructuredData(doc *goquery.Document) []json.RawMessage {
	items := make([]json.RawMessage, 0)

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var decoded json.RawMessage
		if err := jsonCodec.Unmarshal([]byte(strings.TrimSpace(s.Text())), &decoded); err != nil {
			return
		}

		switch firstJSONByte(decoded) {
		case '{':
			items = append(items, decoded)
		case '[':
			var elements []json.RawMessage
			if err := jsonCodec.Unmarshal(decoded, &elements); err != nil {
				return
			}
			for _, el := range elements {
				if firstJSONByte(el) == '{' {
					items = append(items, el)
				}
			}
		}
	})

	return items
}

func firstJSONByte(raw json.RawMessage) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
