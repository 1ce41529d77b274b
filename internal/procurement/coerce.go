package procurement

import "github.com/procurely/rfp-pilot/internal/extract"

// Thin wrappers over the extract coercers for keyed access into generator
// payloads. A missing or wrong-typed field reports !ok and never fails the
// record.

func numberField(data map[string]any, key string) (float64, bool) {
	return extract.Number(data[key])
}

func integerField(data map[string]any, key string) (int, bool) {
	return extract.Integer(data[key])
}

func stringField(data map[string]any, key string) string {
	return extract.String(data[key])
}
