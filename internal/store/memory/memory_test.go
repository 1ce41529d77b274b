package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/procurely/rfp-pilot/internal/procurement"
)

func TestCreateVendorDuplicateEmailCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.CreateVendor(ctx, &procurement.Vendor{ID: "v1", Name: "Acme", Email: "sales@acme.com"})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	err = s.CreateVendor(ctx, &procurement.Vendor{ID: "v2", Name: "Other", Email: "SALES@ACME.COM"})
	if !errors.Is(err, procurement.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestDeleteVendorMissing(t *testing.T) {
	s := New()

	err := s.DeleteVendor(context.Background(), "ghost")
	if !errors.Is(err, procurement.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetRfpReturnsDetachedCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateRfp(ctx, &procurement.Rfp{ID: "r1", Title: "Laptops"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := s.GetRfp(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first.UpsertInvitation("v1", procurement.InviteSent, nil)

	second, _ := s.GetRfp(ctx, "r1")
	if len(second.InvitedVendors) != 0 {
		t.Fatal("mutation of returned rfp leaked into the store")
	}
}

func TestUpsertProposalKeepsIdentity(t *testing.T) {
	s := New()
	ctx := context.Background()
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	first := &procurement.Proposal{ID: "p1", RfpID: "r1", VendorID: "v1", RawEmail: "offer", CreatedAt: created, UpdatedAt: created}
	if err := s.UpsertProposal(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	price := 45000.0
	second := &procurement.Proposal{
		ID: "p2", RfpID: "r1", VendorID: "v1", RawEmail: "revised",
		TotalPrice: &price,
		CreatedAt:  created.Add(time.Hour), UpdatedAt: created.Add(time.Hour),
	}
	if err := s.UpsertProposal(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != "p1" {
		t.Errorf("upsert replaced identity: %s", second.ID)
	}
	if !second.CreatedAt.Equal(created) {
		t.Errorf("upsert replaced creation time: %v", second.CreatedAt)
	}

	proposals, err := s.ListProposalsByRfp(ctx, "r1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(proposals) != 1 {
		t.Fatalf("expected one proposal per pair, got %d", len(proposals))
	}
	if proposals[0].RawEmail != "revised" {
		t.Errorf("fields not replaced: %q", proposals[0].RawEmail)
	}
}

func TestUpsertInvitationConcurrentVendors(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateRfp(ctx, &procurement.Rfp{ID: "r1"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	const vendors = 20
	var wg sync.WaitGroup
	for i := 0; i < vendors; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("v%d", n)
			if err := s.UpsertInvitation(ctx, "r1", id, procurement.InviteResponded, nil); err != nil {
				t.Errorf("upsert %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	r, err := s.GetRfp(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(r.InvitedVendors) != vendors {
		t.Fatalf("lost invitation entries: %d of %d", len(r.InvitedVendors), vendors)
	}
}

func TestUpsertInvitationKeepsSentAtOnNil(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.CreateRfp(ctx, &procurement.Rfp{ID: "r1"})

	sentAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := s.UpsertInvitation(ctx, "r1", "v1", procurement.InviteSent, &sentAt); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertInvitation(ctx, "r1", "v1", procurement.InviteResponded, nil); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	r, _ := s.GetRfp(ctx, "r1")
	if len(r.InvitedVendors) != 1 {
		t.Fatalf("duplicate entries: %+v", r.InvitedVendors)
	}
	inv := r.Invitation("v1")
	if inv.Status != procurement.InviteResponded {
		t.Errorf("status not advanced: %s", inv.Status)
	}
	if inv.SentAt == nil || !inv.SentAt.Equal(sentAt) {
		t.Errorf("sentAt lost on nil update: %v", inv.SentAt)
	}
}

func TestUpsertInvitationMissingRfp(t *testing.T) {
	s := New()

	err := s.UpsertInvitation(context.Background(), "ghost", "v1", procurement.InviteSent, nil)
	if !errors.Is(err, procurement.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRfpsCountsProposals(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	s.CreateRfp(ctx, &procurement.Rfp{ID: "old", CreatedAt: base})
	s.CreateRfp(ctx, &procurement.Rfp{ID: "new", CreatedAt: base.Add(time.Hour)})
	s.UpsertProposal(ctx, &procurement.Proposal{ID: "p1", RfpID: "new", VendorID: "v1"})
	s.UpsertProposal(ctx, &procurement.Proposal{ID: "p2", RfpID: "new", VendorID: "v2"})

	summaries, err := s.ListRfps(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 || summaries[0].ID != "new" {
		t.Fatalf("expected newest first, got %+v", summaries)
	}
	if summaries[0].ProposalCount != 2 || summaries[1].ProposalCount != 0 {
		t.Errorf("wrong proposal counts: %d, %d", summaries[0].ProposalCount, summaries[1].ProposalCount)
	}
}
