package procurement

import (
	"context"
	"time"
)

// Store is the document-store capability the workflow depends on.
// Implementations must return ErrNotFound / ErrDuplicate for the
// corresponding conditions and keep UpsertProposal and UpsertInvitation
// atomic with respect to their per-pair invariants.
type Store interface {
	CreateVendor(ctx context.Context, v *Vendor) error
	GetVendor(ctx context.Context, id string) (*Vendor, error)
	GetVendors(ctx context.Context, ids []string) ([]Vendor, error)
	ListVendors(ctx context.Context) ([]Vendor, error)
	DeleteVendor(ctx context.Context, id string) error

	CreateRfp(ctx context.Context, r *Rfp) error
	GetRfp(ctx context.Context, id string) (*Rfp, error)
	DeleteRfp(ctx context.Context, id string) error
	// ListRfps returns all RFPs newest-first, each with its proposal count.
	ListRfps(ctx context.Context) ([]RfpSummary, error)
	// UpsertInvitation records the invitation state for one vendor of the
	// RFP. The whole read-modify-write happens inside the store, so
	// concurrent updates for different vendors of the same RFP never lose
	// each other's entries. A nil sentAt keeps any existing timestamp.
	UpsertInvitation(ctx context.Context, rfpID, vendorID string, status InviteStatus, sentAt *time.Time) error

	// UpsertProposal creates or fully replaces the proposal for the
	// (RfpID, VendorID) pair, preserving ID and CreatedAt of an existing row.
	UpsertProposal(ctx context.Context, p *Proposal) error
	// ListProposalsByRfp returns the RFP's proposals newest-first.
	ListProposalsByRfp(ctx context.Context, rfpID string) ([]Proposal, error)
}
