package procurement

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/procurely/rfp-pilot/internal/extract"
)

// IngestReply converts a vendor's raw reply into the structured proposal for
// the (RFP, vendor) pair and advances the invitation to RESPONDED.
//
// Exactly one proposal exists per pair: repeated ingestion fully replaces the
// previous structured fields (last write wins, no merge). A vendor replying
// without a recorded invitation still gets a RESPONDED entry.
func (s *Service) IngestReply(ctx context.Context, rfpID, vendorID, subject, body string) (*Proposal, error) {
	if strings.TrimSpace(body) == "" {
		return nil, validationf("email body (text or html) is required")
	}

	rfp, err := s.store.GetRfp(ctx, rfpID)
	if err != nil {
		return nil, fmt.Errorf("get rfp: %w", err)
	}

	vendor, err := s.store.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("get vendor: %w", err)
	}

	data, err := s.extractor.Object(ctx, buildProposalPrompt(rfp, vendor, subject, body))
	if err != nil {
		// Extraction failures are terminal here; retry policy belongs to the
		// caller.
		return nil, fmt.Errorf("extract proposal: %w", err)
	}

	now := s.now()
	proposal := &Proposal{
		ID:        s.newID(),
		RfpID:     rfp.ID,
		VendorID:  vendor.ID,
		RawEmail:  body,
		Parsed:    data,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Every field is coerced independently; a wrong-typed value degrades to
	// unset without rejecting the record.
	if price, ok := numberField(data, "totalPrice"); ok {
		proposal.TotalPrice = &price
	}
	if currency := stringField(data, "currency"); currency != "" {
		proposal.Currency = &currency
	}
	if days, ok := integerField(data, "deliveryDays"); ok {
		proposal.DeliveryDays = &days
	}
	if terms := stringField(data, "paymentTerms"); terms != "" {
		proposal.PaymentTerms = &terms
	}
	if warranty := stringField(data, "warranty"); warranty != "" {
		proposal.Warranty = &warranty
	}
	if score, ok := numberField(data, "scoreOverall"); ok {
		proposal.ScoreOverall = &score
	}
	if summary := stringField(data, "summary"); summary != "" {
		proposal.AISummary = &summary
	}
	proposal.ScoreBreakdown = decodeScoreBreakdown(data["scoreBreakdown"])

	var items []ProposalLineItem
	if err := extract.Slice(data["lineItems"], &items); err == nil {
		proposal.LineItems = items
	}

	if err := s.store.UpsertProposal(ctx, proposal); err != nil {
		return nil, fmt.Errorf("upsert proposal: %w", err)
	}

	if err := s.store.UpsertInvitation(ctx, rfp.ID, vendor.ID, InviteResponded, nil); err != nil {
		return nil, fmt.Errorf("record response: %w", err)
	}

	s.logger.Info("proposal ingested",
		zap.String("rfp_id", rfp.ID),
		zap.String("vendor_id", vendor.ID),
		zap.String("proposal_id", proposal.ID),
		zap.Bool("scored", proposal.ScoreOverall != nil),
	)

	return proposal, nil
}

func decodeScoreBreakdown(v any) *ScoreBreakdown {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	breakdown := &ScoreBreakdown{}
	if price, ok := extract.Number(obj["price"]); ok {
		breakdown.Price = &price
	}
	if delivery, ok := extract.Number(obj["delivery"]); ok {
		breakdown.Delivery = &delivery
	}
	if terms, ok := extract.Number(obj["terms"]); ok {
		breakdown.Terms = &terms
	}
	if warranty, ok := extract.Number(obj["warranty"]); ok {
		breakdown.Warranty = &warranty
	}
	return breakdown
}
