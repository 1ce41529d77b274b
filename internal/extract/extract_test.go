package extract

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	return s.response, s.err
}

func (s *stubGenerator) GenerateJSON(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	return s.response, s.err
}

func TestParseObjectPlain(t *testing.T) {
	data, err := ParseObject(`{"title": "Laptops", "budget": 5000}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data["title"] != "Laptops" {
		t.Fatalf("unexpected title: %v", data["title"])
	}
}

func TestParseObjectStripsFences(t *testing.T) {
	raw := "```json\n{\"title\": \"Laptops\"}\n```"
	data, err := ParseObject(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data["title"] != "Laptops" {
		t.Fatalf("unexpected title: %v", data["title"])
	}
}

func TestParseObjectRecoversFromProse(t *testing.T) {
	raw := "Sure, here is the structured record you asked for:\n{\"title\": \"Laptops\", \"budget\": 5000}\nLet me know if you need anything else."
	data, err := ParseObject(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data["budget"] != float64(5000) {
		t.Fatalf("unexpected budget: %v", data["budget"])
	}
}

func TestParseObjectMalformed(t *testing.T) {
	raw := "I could not produce the record, sorry."
	_, err := ParseObject(raw)

	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %v", err)
	}

	if malformed.Raw != raw {
		t.Fatalf("expected raw text preserved, got %q", malformed.Raw)
	}
}

func TestObjectPassesThroughGeneratorError(t *testing.T) {
	genErr := errors.New("provider down")
	e := New(&stubGenerator{err: genErr}, zap.NewNop())

	_, err := e.Object(context.Background(), "prompt")
	if !errors.Is(err, genErr) {
		t.Fatalf("expected generator error, got %v", err)
	}
}

func TestObjectSendsPrompt(t *testing.T) {
	stub := &stubGenerator{response: `{"ok": true}`}
	e := New(stub, zap.NewNop())

	if _, err := e.Object(context.Background(), "the prompt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stub.lastPrompt != "the prompt" {
		t.Fatalf("unexpected prompt: %q", stub.lastPrompt)
	}
}

func TestNumberCoercion(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float", 12.5, 12.5, true},
		{"numeric string", " 42 ", 42, true},
		{"wrong type", "ten thousand", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Number(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("Number(%v) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestIntegerTruncates(t *testing.T) {
	got, ok := Integer(14.9)
	if !ok || got != 14 {
		t.Fatalf("Integer(14.9) = %d, %v", got, ok)
	}
}

func TestStringCoercion(t *testing.T) {
	if got := String("  net 30  "); got != "net 30" {
		t.Fatalf("unexpected string: %q", got)
	}
	if got := String(30); got != "" {
		t.Fatalf("expected empty string for non-string, got %q", got)
	}
}

func TestSliceDecodesObjects(t *testing.T) {
	type item struct {
		Name     string  `json:"name"`
		Quantity float64 `json:"quantity"`
	}

	payload := []any{
		map[string]any{"name": "Laptop", "quantity": float64(20)},
		map[string]any{"name": "Mouse", "quantity": "40"},
	}

	var items []item
	if err := Slice(payload, &items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	if items[1].Quantity != 40 {
		t.Fatalf("expected weakly typed quantity, got %v", items[1].Quantity)
	}
}

func TestSliceIgnoresNonArray(t *testing.T) {
	var items []struct{}
	if err := Slice("not an array", &items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}
