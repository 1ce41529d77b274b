// Package memory provides a mutex-guarded in-process implementation of the
// procurement store. It backs tests and the --in-memory development mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/procurely/rfp-pilot/internal/procurement"
)

type Store struct {
	mu        sync.Mutex
	vendors   map[string]procurement.Vendor
	rfps      map[string]procurement.Rfp
	proposals map[string]procurement.Proposal // keyed by rfpID|vendorID
}

func New() *Store {
	return &Store{
		vendors:   make(map[string]procurement.Vendor),
		rfps:      make(map[string]procurement.Rfp),
		proposals: make(map[string]procurement.Proposal),
	}
}

func proposalKey(rfpID, vendorID string) string {
	return rfpID + "|" + vendorID
}

func (s *Store) CreateVendor(_ context.Context, v *procurement.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(v.Email)
	for _, existing := range s.vendors {
		if strings.ToLower(existing.Email) == email {
			return fmt.Errorf("vendor email %s: %w", v.Email, procurement.ErrDuplicate)
		}
	}

	v.Email = email
	s.vendors[v.ID] = *v
	return nil
}

func (s *Store) GetVendor(_ context.Context, id string) (*procurement.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vendors[id]
	if !ok {
		return nil, fmt.Errorf("vendor %s: %w", id, procurement.ErrNotFound)
	}
	return &v, nil
}

func (s *Store) GetVendors(_ context.Context, ids []string) ([]procurement.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]procurement.Vendor, 0, len(ids))
	for _, id := range ids {
		if v, ok := s.vendors[id]; ok {
			result = append(result, v)
		}
	}
	return result, nil
}

func (s *Store) ListVendors(_ context.Context) ([]procurement.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]procurement.Vendor, 0, len(s.vendors))
	for _, v := range s.vendors {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) DeleteVendor(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vendors[id]; !ok {
		return fmt.Errorf("vendor %s: %w", id, procurement.ErrNotFound)
	}
	delete(s.vendors, id)
	return nil
}

func (s *Store) CreateRfp(_ context.Context, r *procurement.Rfp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rfps[r.ID] = cloneRfp(r)
	return nil
}

func (s *Store) GetRfp(_ context.Context, id string) (*procurement.Rfp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rfps[id]
	if !ok {
		return nil, fmt.Errorf("rfp %s: %w", id, procurement.ErrNotFound)
	}
	clone := cloneRfp(&r)
	return &clone, nil
}

func (s *Store) DeleteRfp(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rfps[id]; !ok {
		return fmt.Errorf("rfp %s: %w", id, procurement.ErrNotFound)
	}
	delete(s.rfps, id)
	return nil
}

func (s *Store) ListRfps(_ context.Context) ([]procurement.RfpSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, p := range s.proposals {
		counts[p.RfpID]++
	}

	result := make([]procurement.RfpSummary, 0, len(s.rfps))
	for _, r := range s.rfps {
		result = append(result, procurement.RfpSummary{
			Rfp:           cloneRfp(&r),
			ProposalCount: counts[r.ID],
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// UpsertInvitation mutates the invitation list under the store lock so
// concurrent updates for different vendors never clobber each other.
func (s *Store) UpsertInvitation(_ context.Context, rfpID, vendorID string, status procurement.InviteStatus, sentAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rfps[rfpID]
	if !ok {
		return fmt.Errorf("rfp %s: %w", rfpID, procurement.ErrNotFound)
	}
	r.UpsertInvitation(vendorID, status, sentAt)
	s.rfps[rfpID] = r
	return nil
}

// UpsertProposal serializes writes under the store lock so exactly one
// proposal survives per (rfp, vendor) pair, the later write winning.
func (s *Store) UpsertProposal(_ context.Context, p *procurement.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := proposalKey(p.RfpID, p.VendorID)
	if existing, ok := s.proposals[key]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	}
	s.proposals[key] = *p
	return nil
}

func (s *Store) ListProposalsByRfp(_ context.Context, rfpID string) ([]procurement.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]procurement.Proposal, 0)
	for _, p := range s.proposals {
		if p.RfpID == rfpID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func cloneRfp(r *procurement.Rfp) procurement.Rfp {
	clone := *r
	clone.LineItems = append([]procurement.LineItem(nil), r.LineItems...)
	clone.InvitedVendors = append([]procurement.InvitedVendor(nil), r.InvitedVendors...)
	return clone
}
