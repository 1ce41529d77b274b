package procurement

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/procurely/rfp-pilot/internal/mail"
)

const fallbackInviteSubject = "RFP Invitation"

// InviteVendors generates and sends a personalized invitation email to each
// vendor in the batch, advancing the invitation state to SENT.
//
// Vendors are processed strictly sequentially. Each prompt is per-vendor so a
// generation failure for one vendor cannot corrupt another's email. The
// invitation list is persisted after every successful send; when a later
// vendor fails, the returned *DispatchError carries the outcomes already
// committed.
//
// Inviting an already SENT or RESPONDED vendor refreshes sentAt and resets
// state to SENT.
func (s *Service) InviteVendors(ctx context.Context, rfpID string, vendorIDs []string) ([]InviteResult, error) {
	if len(vendorIDs) == 0 {
		return nil, validationf("vendorIds array is required")
	}

	rfp, err := s.store.GetRfp(ctx, rfpID)
	if err != nil {
		return nil, fmt.Errorf("get rfp: %w", err)
	}

	vendors, err := s.store.GetVendors(ctx, vendorIDs)
	if err != nil {
		return nil, fmt.Errorf("get vendors: %w", err)
	}
	if len(vendors) == 0 {
		return nil, fmt.Errorf("no vendors found for given ids: %w", ErrNotFound)
	}

	results := make([]InviteResult, 0, len(vendors))

	for i := range vendors {
		vendor := &vendors[i]

		if err := s.inviteOne(ctx, rfp, vendor); err != nil {
			s.logger.Warn("invitation batch aborted",
				zap.String("rfp_id", rfp.ID),
				zap.String("vendor_id", vendor.ID),
				zap.Int("sent_before_failure", len(results)),
				zap.Error(err),
			)
			return results, &DispatchError{Results: results, Err: err}
		}

		results = append(results, InviteResult{
			VendorID: vendor.ID,
			Email:    vendor.Email,
			Status:   InviteSent,
		})
	}

	s.logger.Info("invitations sent",
		zap.String("rfp_id", rfp.ID),
		zap.Int("vendors", len(results)),
	)

	return results, nil
}

func (s *Service) inviteOne(ctx context.Context, rfp *Rfp, vendor *Vendor) error {
	emailText, err := s.gen.GenerateContent(ctx, buildInvitePrompt(rfp, vendor))
	if err != nil {
		return fmt.Errorf("generate invitation for %s: %w", vendor.ID, err)
	}

	subject, body := splitSubject(emailText)
	subject = fmt.Sprintf("%s %s", correlationTag(rfp.ID, vendor.ID), subject)
	body += fmt.Sprintf("\n\nYou can submit your detailed proposal using this link: %s", s.submitURL(rfp.ID, vendor.ID))

	msg := mail.Message{To: vendor.Email, Subject: subject, Body: body}
	if err := s.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("send invitation to %s: %w", vendor.Email, err)
	}

	sentAt := s.now()
	if err := s.store.UpsertInvitation(ctx, rfp.ID, vendor.ID, InviteSent, &sentAt); err != nil {
		return fmt.Errorf("record invitation for %s: %w", vendor.ID, err)
	}

	s.logger.Debug("invitation sent",
		zap.String("rfp_id", rfp.ID),
		zap.String("vendor_id", vendor.ID),
		zap.String("email", vendor.Email),
	)

	return nil
}

// correlationTag is the opaque token embedded in every outgoing subject so
// that replies can be routed back to the (RFP, vendor) pair without lookup.
func correlationTag(rfpID, vendorID string) string {
	return fmt.Sprintf("[RFP:%s][VENDOR:%s]", rfpID, vendorID)
}

func (s *Service) submitURL(rfpID, vendorID string) string {
	return fmt.Sprintf("%s/proposal/submit?rfpId=%s&vendorId=%s", s.clientURL, rfpID, vendorID)
}

// splitSubject extracts the generator's leading "Subject: ..." line. When the
// generator ignored the instruction the whole text becomes the body under a
// fixed subject.
func splitSubject(emailText string) (subject, body string) {
	lines := strings.Split(emailText, "\n")
	subject = fallbackInviteSubject
	body = emailText

	if len(lines) > 0 && strings.HasPrefix(strings.ToLower(lines[0]), "subject:") {
		subject = strings.TrimSpace(lines[0][len("subject:"):])
		rest := lines[1:]
		for len(rest) > 0 && strings.TrimSpace(rest[0]) == "" {
			rest = rest[1:]
		}
		body = strings.Join(rest, "\n")
	}
	return subject, body
}
