package procurement

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const defaultRfpTitle = "Untitled RFP"

// DraftRfp structures a free-text procurement description into an RFP draft.
// Nothing is persisted; the caller reviews the draft and finalizes it
// separately. Fields the generator omits or mistypes degrade to unset.
func (s *Service) DraftRfp(ctx context.Context, description, title string) (*RfpDraft, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, validationf("description is required")
	}

	data, err := s.extractor.Object(ctx, buildDraftPrompt(description))
	if err != nil {
		return nil, fmt.Errorf("draft rfp: %w", err)
	}

	draft := &RfpDraft{
		DescriptionNLP: description,
		Title:          coalesceTitle(data["title"], title),
		LineItems:      []LineItem{},
	}

	if budget, ok := numberField(data, "budget"); ok {
		draft.Budget = &budget
	}
	if days, ok := integerField(data, "deliveryDays"); ok {
		draft.DeliveryDays = &days
	}
	if terms := stringField(data, "paymentTerms"); terms != "" {
		draft.PaymentTerms = &terms
	}
	if warranty := stringField(data, "warranty"); warranty != "" {
		draft.Warranty = &warranty
	}
	draft.LineItems = decodeLineItems(data["lineItems"])

	draft.Summary = summarizeDraft(draft)

	s.logger.Info("rfp draft generated",
		zap.String("title", draft.Title),
		zap.Int("line_items", len(draft.LineItems)),
		zap.Bool("budget_detected", draft.Budget != nil),
	)

	return draft, nil
}

// coalesceTitle prefers the extracted title, then the caller-supplied one,
// then the fixed default label.
func coalesceTitle(extracted any, supplied string) string {
	if s, ok := extracted.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	if supplied = strings.TrimSpace(supplied); supplied != "" {
		return supplied
	}
	return defaultRfpTitle
}

// summarizeDraft synthesizes the human-readable summary deterministically
// from the final field values, one declarative sentence per field.
func summarizeDraft(d *RfpDraft) string {
	parts := []string{fmt.Sprintf("Title detected: %q.", d.Title)}

	if d.Budget != nil {
		parts = append(parts, fmt.Sprintf("Estimated budget: %s.", floatOrNotSpecified(d.Budget)))
	} else {
		parts = append(parts, "No explicit budget detected.")
	}

	if d.DeliveryDays != nil {
		parts = append(parts, fmt.Sprintf("Requested delivery timeline: %d days.", *d.DeliveryDays))
	} else {
		parts = append(parts, "No explicit delivery timeline detected.")
	}

	if d.PaymentTerms != nil {
		parts = append(parts, fmt.Sprintf("Payment terms: %s.", *d.PaymentTerms))
	} else {
		parts = append(parts, "No specific payment terms detected.")
	}

	if d.Warranty != nil {
		parts = append(parts, fmt.Sprintf("Warranty requested: %s.", *d.Warranty))
	} else {
		parts = append(parts, "No specific warranty information detected.")
	}

	if len(d.LineItems) > 0 {
		parts = append(parts, fmt.Sprintf("Line items detected: %s", formatLineItems(d.LineItems, " ")))
	} else {
		parts = append(parts, "No clear line items detected in the description.")
	}

	return strings.Join(parts, " ")
}

// decodeLineItems turns the extracted lineItems payload into typed items,
// dropping entries without a usable name or quantity.
func decodeLineItems(v any) []LineItem {
	items, ok := v.([]any)
	if !ok {
		return []LineItem{}
	}

	result := make([]LineItem, 0, len(items))
	for _, raw := range items {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		name := stringField(obj, "name")
		if name == "" {
			continue
		}

		qty, ok := integerField(obj, "quantity")
		if !ok || qty < 1 {
			qty = 1
		}

		result = append(result, LineItem{
			Name:     name,
			Quantity: qty,
			Spec:     stringField(obj, "spec"),
		})
	}
	return result
}
