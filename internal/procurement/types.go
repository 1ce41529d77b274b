// Package procurement implements the RFP workflow: drafting structured RFPs
// from free text, inviting vendors, ingesting vendor replies into proposals
// and ranking them for the buyer.
package procurement

import "time"

// InviteStatus tracks a vendor's position in the invitation state machine.
// DRAFT is implicit: a vendor without an invitation entry has never been sent
// one.
type InviteStatus string

const (
	InviteDraft     InviteStatus = "DRAFT"
	InviteSent      InviteStatus = "SENT"
	InviteResponded InviteStatus = "RESPONDED"
)

// Vendor is an independently managed supplier identity. Email is unique and
// stored lowercased.
type Vendor struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// LineItem is one requested good or service embedded in an RFP. It has no
// identity of its own.
type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Spec     string `json:"spec"`
}

// InvitedVendor records a vendor's invitation state for one RFP. At most one
// entry exists per vendor; see Rfp.UpsertInvitation.
type InvitedVendor struct {
	VendorID string       `json:"vendorId"`
	Status   InviteStatus `json:"status"`
	SentAt   *time.Time   `json:"sentAt,omitempty"`
}

// Rfp is the buyer's structured procurement requirement. DescriptionNLP keeps
// the original free text and is immutable after creation; only the invitation
// list mutates afterwards.
type Rfp struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	DescriptionNLP string          `json:"descriptionNlp"`
	Budget         *float64        `json:"budget"`
	DeliveryDays   *int            `json:"deliveryDays"`
	PaymentTerms   *string         `json:"paymentTerms"`
	Warranty       *string         `json:"warranty"`
	LineItems      []LineItem      `json:"lineItems"`
	InvitedVendors []InvitedVendor `json:"invitedVendors"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// UpsertInvitation records the given state for the vendor, replacing any
// existing entry so the one-entry-per-vendor invariant holds structurally.
func (r *Rfp) UpsertInvitation(vendorID string, status InviteStatus, sentAt *time.Time) {
	for i := range r.InvitedVendors {
		if r.InvitedVendors[i].VendorID == vendorID {
			r.InvitedVendors[i].Status = status
			if sentAt != nil {
				r.InvitedVendors[i].SentAt = sentAt
			}
			return
		}
	}
	r.InvitedVendors = append(r.InvitedVendors, InvitedVendor{
		VendorID: vendorID,
		Status:   status,
		SentAt:   sentAt,
	})
}

// Invitation returns the invitation entry for the vendor, or nil when the
// vendor is still in the implicit DRAFT state.
func (r *Rfp) Invitation(vendorID string) *InvitedVendor {
	for i := range r.InvitedVendors {
		if r.InvitedVendors[i].VendorID == vendorID {
			return &r.InvitedVendors[i]
		}
	}
	return nil
}

// RfpSummary is the list-view projection: the RFP plus how many proposals it
// has received.
type RfpSummary struct {
	Rfp
	ProposalCount int `json:"proposalCount"`
}

// ScoreBreakdown carries the per-dimension sub-scores composing an overall
// proposal score. All dimensions are optional generator output.
type ScoreBreakdown struct {
	Price    *float64 `json:"price"`
	Delivery *float64 `json:"delivery"`
	Terms    *float64 `json:"terms"`
	Warranty *float64 `json:"warranty"`
}

// ProposalLineItem is one priced line of a vendor quote as extracted from the
// reply text.
type ProposalLineItem struct {
	Name       string   `json:"name"`
	Quantity   *float64 `json:"quantity"`
	Spec       string   `json:"spec"`
	UnitPrice  *float64 `json:"unitPrice"`
	TotalPrice *float64 `json:"totalPrice"`
}

// Proposal is a vendor's structured commercial response to an RFP, derived
// from a free-text reply. Exactly one proposal exists per (RFP, vendor) pair.
type Proposal struct {
	ID             string             `json:"id"`
	RfpID          string             `json:"rfpId"`
	VendorID       string             `json:"vendorId"`
	RawEmail       string             `json:"rawEmail"`
	Parsed         map[string]any     `json:"parsedJson,omitempty"`
	TotalPrice     *float64           `json:"totalPrice"`
	Currency       *string            `json:"currency"`
	DeliveryDays   *int               `json:"deliveryDays"`
	PaymentTerms   *string            `json:"paymentTerms"`
	Warranty       *string            `json:"warranty"`
	LineItems      []ProposalLineItem `json:"lineItems,omitempty"`
	ScoreOverall   *float64           `json:"scoreOverall"`
	ScoreBreakdown *ScoreBreakdown    `json:"scoreBreakdown"`
	AISummary      *string            `json:"aiSummary"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// Recommendation is one entry of the ranked recommendation list returned with
// an RFP detail view.
type Recommendation struct {
	ProposalID   string  `json:"proposalId"`
	Rank         int     `json:"rank"`
	OverallScore float64 `json:"overallScore"`
	Reason       string  `json:"reason"`
}

// RfpDraft is the unpersisted result of structuring a free-text description.
type RfpDraft struct {
	Title          string     `json:"title"`
	DescriptionNLP string     `json:"descriptionNlp"`
	Budget         *float64   `json:"budget"`
	DeliveryDays   *int       `json:"deliveryDays"`
	PaymentTerms   *string    `json:"paymentTerms"`
	Warranty       *string    `json:"warranty"`
	LineItems      []LineItem `json:"lineItems"`
	Summary        string     `json:"summary"`
}

// InviteResult reports the outcome for one vendor of an invitation batch.
type InviteResult struct {
	VendorID string       `json:"vendorId"`
	Email    string       `json:"email"`
	Status   InviteStatus `json:"status"`
}

// RfpDetail is the read-side view of one RFP: the aggregate, its proposals
// newest-first and the ranked recommendations.
type RfpDetail struct {
	Rfp             *Rfp             `json:"rfp"`
	Proposals       []Proposal       `json:"proposals"`
	Recommendations []Recommendation `json:"recommendations"`
}
