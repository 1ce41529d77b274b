// Package extract turns raw generator output into validated structured
// records. It owns the recovery heuristics for conversational noise around
// JSON payloads and the field-level coercion rules applied by callers.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/procurely/rfp-pilot/internal/ai"
	"github.com/procurely/rfp-pilot/internal/logger"
)

const defaultMaxLogLength = 200

// MalformedError reports generator output that could not be parsed as a
// structured record. Raw carries the full text for diagnostics.
type MalformedError struct {
	Raw string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed generator output: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Extractor sends prompts to the completion capability and parses the result
// into a generic object. It performs no semantic validation; callers apply
// per-field coercion.
type Extractor struct {
	gen       ai.Generator
	logger    *zap.Logger
	maxLogLen int
}

func New(gen ai.Generator, log *zap.Logger) *Extractor {
	return &Extractor{
		gen:       gen,
		logger:    logger.OrNop(log),
		maxLogLen: defaultMaxLogLength,
	}
}

// Object sends the prompt in structured-output mode and parses the reply as a
// single JSON object. Parse failures come back as *MalformedError; provider
// failures pass through unchanged.
func (e *Extractor) Object(ctx context.Context, prompt string) (map[string]any, error) {
	raw, err := e.gen.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("generator structured response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.Truncate(raw, e.maxLogLen)),
	)

	return ParseObject(raw)
}

// ParseObject recovers a JSON object from raw generator text: fenced code
// blocks are unwrapped and conversational preamble/postamble around the
// outermost braces is discarded.
func ParseObject(raw string) (map[string]any, error) {
	cleaned := recoverJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, &MalformedError{Raw: raw, Err: err}
	}
	return data, nil
}

func recoverJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
		if idx := strings.LastIndex(cleaned, "```"); idx != -1 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	if !strings.HasPrefix(cleaned, "{") {
		first := strings.Index(cleaned, "{")
		last := strings.LastIndex(cleaned, "}")
		if first != -1 && last > first {
			cleaned = cleaned[first : last+1]
		}
	}

	return cleaned
}

// Number coerces a decoded JSON value into a float64. Non-numeric values
// report ok=false instead of failing the whole record.
func Number(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Integer coerces a decoded JSON value into an int, truncating fractions.
func Integer(v any) (int, bool) {
	f, ok := Number(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// String coerces a decoded JSON value into a trimmed string. Non-string
// scalars yield "".
func String(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Slice decodes an array-of-objects payload into out, matching keys against
// json tags. Entries with wrong-typed fields degrade to zero values rather
// than rejecting the slice.
func Slice(v any, out any) error {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	cfg := &mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	// Decode errors here mean some fields were unusable; the usable part of
	// the slice is already filled in.
	decoder.Decode(items)
	return nil
}
