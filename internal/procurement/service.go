package procurement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procurely/rfp-pilot/internal/ai"
	"github.com/procurely/rfp-pilot/internal/extract"
	"github.com/procurely/rfp-pilot/internal/logger"
	"github.com/procurely/rfp-pilot/internal/mail"
)

// Deps aggregates the collaborators the workflow depends on.
type Deps struct {
	Store     Store
	Generator ai.Generator
	Extractor *extract.Extractor
	Mail      mail.Sender
	// ClientURL is the base URL of the buyer-facing frontend, used to build
	// proposal submission links in invitation emails.
	ClientURL string
	Logger    *zap.Logger
}

// Service implements the procurement workflow operations.
type Service struct {
	store     Store
	gen       ai.Generator
	extractor *extract.Extractor
	mail      mail.Sender
	clientURL string
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

func New(deps Deps) *Service {
	return &Service{
		store:     deps.Store,
		gen:       deps.Generator,
		extractor: deps.Extractor,
		mail:      deps.Mail,
		clientURL: strings.TrimRight(deps.ClientURL, "/"),
		logger:    logger.OrNop(deps.Logger),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// CreateVendor registers a new vendor. Email is unique, compared
// case-insensitively.
func (s *Service) CreateVendor(ctx context.Context, name, email, phone string) (*Vendor, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)

	if name == "" || email == "" || phone == "" {
		return nil, validationf("name, email and phonenumber are required")
	}

	vendor := &Vendor{
		ID:        s.newID(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: s.now(),
	}

	if err := s.store.CreateVendor(ctx, vendor); err != nil {
		return nil, fmt.Errorf("create vendor: %w", err)
	}

	s.logger.Info("vendor created",
		zap.String("vendor_id", vendor.ID),
		zap.String("email", vendor.Email),
	)

	return vendor, nil
}

// ListVendors returns all vendors, newest first.
func (s *Service) ListVendors(ctx context.Context) ([]Vendor, error) {
	return s.store.ListVendors(ctx)
}

// DeleteVendor removes a vendor. Proposals and invitations referencing it are
// left untouched; dangling references are the caller's concern.
func (s *Service) DeleteVendor(ctx context.Context, id string) error {
	if err := s.store.DeleteVendor(ctx, id); err != nil {
		return fmt.Errorf("delete vendor: %w", err)
	}
	s.logger.Info("vendor deleted", zap.String("vendor_id", id))
	return nil
}

// FinalizeRfpInput carries the structured fields of a reviewed draft.
type FinalizeRfpInput struct {
	Title          string     `json:"title"`
	DescriptionNLP string     `json:"descriptionNlp"`
	Budget         *float64   `json:"budget"`
	DeliveryDays   *int       `json:"deliveryDays"`
	PaymentTerms   *string    `json:"paymentTerms"`
	Warranty       *string    `json:"warranty"`
	LineItems      []LineItem `json:"lineItems"`
}

// FinalizeRfp persists a reviewed draft as a new RFP. Drafting never
// persists; this is the single creation point.
func (s *Service) FinalizeRfp(ctx context.Context, input FinalizeRfpInput) (*Rfp, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.DescriptionNLP)

	if title == "" || description == "" {
		return nil, validationf("title and descriptionNlp are required")
	}

	for i, item := range input.LineItems {
		if strings.TrimSpace(item.Name) == "" {
			return nil, validationf("lineItems[%d].name is required", i)
		}
		if item.Quantity < 1 {
			return nil, validationf("lineItems[%d].quantity must be at least 1", i)
		}
	}

	rfp := &Rfp{
		ID:             s.newID(),
		Title:          title,
		DescriptionNLP: description,
		Budget:         input.Budget,
		DeliveryDays:   input.DeliveryDays,
		PaymentTerms:   input.PaymentTerms,
		Warranty:       input.Warranty,
		LineItems:      input.LineItems,
		InvitedVendors: []InvitedVendor{},
		CreatedAt:      s.now(),
	}
	if rfp.LineItems == nil {
		rfp.LineItems = []LineItem{}
	}

	if err := s.store.CreateRfp(ctx, rfp); err != nil {
		return nil, fmt.Errorf("create rfp: %w", err)
	}

	s.logger.Info("rfp created",
		zap.String("rfp_id", rfp.ID),
		zap.String("title", rfp.Title),
		zap.Int("line_items", len(rfp.LineItems)),
	)

	return rfp, nil
}

// ListRfps returns all RFPs with their proposal counts, newest first.
func (s *Service) ListRfps(ctx context.Context) ([]RfpSummary, error) {
	return s.store.ListRfps(ctx)
}

// DeleteRfp removes an RFP. Its proposals are intentionally kept; proposal
// cleanup is an external concern.
func (s *Service) DeleteRfp(ctx context.Context, id string) (*Rfp, error) {
	rfp, err := s.store.GetRfp(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get rfp: %w", err)
	}
	if err := s.store.DeleteRfp(ctx, id); err != nil {
		return nil, fmt.Errorf("delete rfp: %w", err)
	}
	s.logger.Info("rfp deleted", zap.String("rfp_id", id))
	return rfp, nil
}

// GetRfpDetail returns the RFP, its proposals newest-first and the ranked
// recommendation list.
func (s *Service) GetRfpDetail(ctx context.Context, id string) (*RfpDetail, error) {
	rfp, err := s.store.GetRfp(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get rfp: %w", err)
	}

	proposals, err := s.store.ListProposalsByRfp(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}

	return &RfpDetail{
		Rfp:             rfp,
		Proposals:       proposals,
		Recommendations: s.Rank(ctx, rfp, proposals),
	}, nil
}
