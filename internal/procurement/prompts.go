package procurement

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"
)

//go:embed prompt_rfp_draft.md
var draftPromptTemplate string

//go:embed prompt_invite_email.md
var invitePromptTemplate string

//go:embed prompt_proposal_extract.md
var proposalPromptTemplate string

//go:embed prompt_ranking.md
var rankingPromptTemplate string

const notSpecified = "Not specified"

func buildDraftPrompt(description string) string {
	return strings.ReplaceAll(draftPromptTemplate, "{{DESCRIPTION}}", description)
}

func buildInvitePrompt(rfp *Rfp, vendor *Vendor) string {
	prompt := invitePromptTemplate
	prompt = strings.ReplaceAll(prompt, "{{VENDOR_NAME}}", vendor.Name)
	prompt = strings.ReplaceAll(prompt, "{{VENDOR_EMAIL}}", vendor.Email)
	prompt = strings.ReplaceAll(prompt, "{{RFP_TITLE}}", rfp.Title)
	prompt = strings.ReplaceAll(prompt, "{{BUDGET}}", floatOrNotSpecified(rfp.Budget))
	prompt = strings.ReplaceAll(prompt, "{{DELIVERY_DAYS}}", intOrNotSpecified(rfp.DeliveryDays))
	prompt = strings.ReplaceAll(prompt, "{{PAYMENT_TERMS}}", stringOrNotSpecified(rfp.PaymentTerms))
	prompt = strings.ReplaceAll(prompt, "{{WARRANTY}}", stringOrNotSpecified(rfp.Warranty))
	prompt = strings.ReplaceAll(prompt, "{{LINE_ITEMS}}", formatLineItems(rfp.LineItems, "\n"))
	return prompt
}

func buildProposalPrompt(rfp *Rfp, vendor *Vendor, subject, body string) string {
	if strings.TrimSpace(subject) == "" {
		subject = "(no subject)"
	}

	prompt := proposalPromptTemplate
	prompt = strings.ReplaceAll(prompt, "{{RFP_JSON}}", rfpTermsJSON(rfp))
	prompt = strings.ReplaceAll(prompt, "{{LINE_ITEMS}}", formatLineItems(rfp.LineItems, "\n"))
	prompt = strings.ReplaceAll(prompt, "{{VENDOR_NAME}}", vendor.Name)
	prompt = strings.ReplaceAll(prompt, "{{VENDOR_EMAIL}}", vendor.Email)
	prompt = strings.ReplaceAll(prompt, "{{SUBJECT}}", subject)
	prompt = strings.ReplaceAll(prompt, "{{BODY}}", body)
	return prompt
}

func buildRankingPrompt(rfp *Rfp, proposals []rankingInput) string {
	proposalsJSON, _ := json.Marshal(proposals)

	prompt := rankingPromptTemplate
	prompt = strings.ReplaceAll(prompt, "{{RFP_JSON}}", rfpTermsJSON(rfp))
	prompt = strings.ReplaceAll(prompt, "{{PROPOSALS_JSON}}", string(proposalsJSON))
	return prompt
}

// rfpTermsJSON renders the RFP's commercial terms for prompt embedding,
// leaving out the invitation list.
func rfpTermsJSON(rfp *Rfp) string {
	payload := map[string]any{
		"title":          rfp.Title,
		"descriptionNlp": rfp.DescriptionNLP,
		"budget":         rfp.Budget,
		"deliveryDays":   rfp.DeliveryDays,
		"paymentTerms":   rfp.PaymentTerms,
		"warranty":       rfp.Warranty,
		"lineItems":      rfp.LineItems,
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

// formatLineItems renders items as "1. 20 x Laptop (16GB RAM)" lines.
func formatLineItems(items []LineItem, sep string) string {
	if len(items) == 0 {
		return "No specific line items listed."
	}

	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %d x %s (%s)", i+1, item.Quantity, item.Name, item.Spec))
	}
	return strings.Join(lines, sep)
}

func floatOrNotSpecified(v *float64) string {
	if v == nil {
		return notSpecified
	}
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", *v), "0"), ".")
}

func intOrNotSpecified(v *int) string {
	if v == nil {
		return notSpecified
	}
	return fmt.Sprintf("%d", *v)
}

func stringOrNotSpecified(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return notSpecified
	}
	return *v
}
