// Package postgres persists the procurement workflow in PostgreSQL. Nested
// documents (line items, invitations, score breakdowns) live in JSONB columns
// so the stored shape matches the domain aggregates.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/procurely/rfp-pilot/internal/procurement"
)

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, conn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", conn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Vendors

func (s *Store) CreateVendor(ctx context.Context, v *procurement.Vendor) error {
	query := `
        INSERT INTO vendors (id, name, email, phone, created_at)
        VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.ExecContext(ctx, query, v.ID, v.Name, v.Email, v.Phone, v.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("vendor email %s: %w", v.Email, procurement.ErrDuplicate)
	}
	return err
}

func (s *Store) GetVendor(ctx context.Context, id string) (*procurement.Vendor, error) {
	v := &procurement.Vendor{}
	query := `SELECT * FROM vendors WHERE id=$1`
	err := s.db.GetContext(ctx, v, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vendor %s: %w", id, procurement.ErrNotFound)
	}
	return v, err
}

func (s *Store) GetVendors(ctx context.Context, ids []string) ([]procurement.Vendor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT * FROM vendors WHERE id IN (%s)`, strings.Join(placeholders, ", "))
	vendors := []procurement.Vendor{}
	err := s.db.SelectContext(ctx, &vendors, query, args...)
	return vendors, err
}

func (s *Store) ListVendors(ctx context.Context) ([]procurement.Vendor, error) {
	vendors := []procurement.Vendor{}
	query := `SELECT * FROM vendors ORDER BY created_at DESC`
	err := s.db.SelectContext(ctx, &vendors, query)
	return vendors, err
}

func (s *Store) DeleteVendor(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vendors WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("vendor %s: %w", id, procurement.ErrNotFound)
	}
	return nil
}

// RFPs

type rfpRow struct {
	ID             string          `db:"id"`
	Title          string          `db:"title"`
	DescriptionNLP string          `db:"description_nlp"`
	Budget         *float64        `db:"budget"`
	DeliveryDays   *int            `db:"delivery_days"`
	PaymentTerms   *string         `db:"payment_terms"`
	Warranty       *string         `db:"warranty"`
	LineItems      json.RawMessage `db:"line_items"`
	InvitedVendors json.RawMessage `db:"invited_vendors"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (r rfpRow) toDomain() (*procurement.Rfp, error) {
	out := &procurement.Rfp{
		ID:             r.ID,
		Title:          r.Title,
		DescriptionNLP: r.DescriptionNLP,
		Budget:         r.Budget,
		DeliveryDays:   r.DeliveryDays,
		PaymentTerms:   r.PaymentTerms,
		Warranty:       r.Warranty,
		CreatedAt:      r.CreatedAt,
	}
	if len(r.LineItems) > 0 {
		if err := json.Unmarshal(r.LineItems, &out.LineItems); err != nil {
			return nil, fmt.Errorf("decode line items of rfp %s: %w", r.ID, err)
		}
	}
	if len(r.InvitedVendors) > 0 {
		if err := json.Unmarshal(r.InvitedVendors, &out.InvitedVendors); err != nil {
			return nil, fmt.Errorf("decode invitations of rfp %s: %w", r.ID, err)
		}
	}
	return out, nil
}

func (s *Store) CreateRfp(ctx context.Context, r *procurement.Rfp) error {
	lineItems, err := json.Marshal(orEmpty(r.LineItems))
	if err != nil {
		return fmt.Errorf("encode line items: %w", err)
	}
	invited, err := json.Marshal(orEmpty(r.InvitedVendors))
	if err != nil {
		return fmt.Errorf("encode invitations: %w", err)
	}
	query := `
        INSERT INTO rfps
            (id, title, description_nlp, budget, delivery_days, payment_terms, warranty, line_items, invited_vendors, created_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.Title, r.DescriptionNLP, r.Budget, r.DeliveryDays,
		r.PaymentTerms, r.Warranty, lineItems, invited, r.CreatedAt)
	return err
}

func (s *Store) GetRfp(ctx context.Context, id string) (*procurement.Rfp, error) {
	var row rfpRow
	query := `SELECT * FROM rfps WHERE id=$1`
	err := s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rfp %s: %w", id, procurement.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (s *Store) DeleteRfp(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rfps WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("rfp %s: %w", id, procurement.ErrNotFound)
	}
	return nil
}

func (s *Store) ListRfps(ctx context.Context) ([]procurement.RfpSummary, error) {
	rows := []rfpRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM rfps ORDER BY created_at DESC`); err != nil {
		return nil, err
	}

	type countRow struct {
		RfpID string `db:"rfp_id"`
		Count int    `db:"count"`
	}
	countRows := []countRow{}
	countQuery := `SELECT rfp_id, COUNT(*) AS count FROM proposals GROUP BY rfp_id`
	if err := s.db.SelectContext(ctx, &countRows, countQuery); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(countRows))
	for _, c := range countRows {
		counts[c.RfpID] = c.Count
	}

	out := make([]procurement.RfpSummary, 0, len(rows))
	for _, row := range rows {
		rfp, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, procurement.RfpSummary{Rfp: *rfp, ProposalCount: counts[rfp.ID]})
	}
	return out, nil
}

// UpsertInvitation rewrites the invitation list inside a transaction holding
// the row lock, so concurrent updates for different vendors of one RFP never
// lose each other's entries.
func (s *Store) UpsertInvitation(ctx context.Context, rfpID, vendorID string, status procurement.InviteStatus, sentAt *time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin invitation update: %w", err)
	}
	defer tx.Rollback()

	var raw json.RawMessage
	err = tx.GetContext(ctx, &raw,
		`SELECT invited_vendors FROM rfps WHERE id=$1 FOR UPDATE`, rfpID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("rfp %s: %w", rfpID, procurement.ErrNotFound)
	}
	if err != nil {
		return err
	}

	r := procurement.Rfp{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &r.InvitedVendors); err != nil {
			return fmt.Errorf("decode invitations of rfp %s: %w", rfpID, err)
		}
	}
	r.UpsertInvitation(vendorID, status, sentAt)

	encoded, err := json.Marshal(orEmpty(r.InvitedVendors))
	if err != nil {
		return fmt.Errorf("encode invitations: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE rfps SET invited_vendors=$1 WHERE id=$2`, encoded, rfpID); err != nil {
		return err
	}
	return tx.Commit()
}

// Proposals

type proposalRow struct {
	ID             string          `db:"id"`
	RfpID          string          `db:"rfp_id"`
	VendorID       string          `db:"vendor_id"`
	RawEmail       string          `db:"raw_email"`
	Parsed         json.RawMessage `db:"parsed"`
	TotalPrice     *float64        `db:"total_price"`
	Currency       *string         `db:"currency"`
	DeliveryDays   *int            `db:"delivery_days"`
	PaymentTerms   *string         `db:"payment_terms"`
	Warranty       *string         `db:"warranty"`
	LineItems      json.RawMessage `db:"line_items"`
	ScoreOverall   *float64        `db:"score_overall"`
	ScoreBreakdown json.RawMessage `db:"score_breakdown"`
	AISummary      *string         `db:"ai_summary"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (r proposalRow) toDomain() (*procurement.Proposal, error) {
	out := &procurement.Proposal{
		ID:           r.ID,
		RfpID:        r.RfpID,
		VendorID:     r.VendorID,
		RawEmail:     r.RawEmail,
		TotalPrice:   r.TotalPrice,
		Currency:     r.Currency,
		DeliveryDays: r.DeliveryDays,
		PaymentTerms: r.PaymentTerms,
		Warranty:     r.Warranty,
		ScoreOverall: r.ScoreOverall,
		AISummary:    r.AISummary,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if len(r.Parsed) > 0 {
		if err := json.Unmarshal(r.Parsed, &out.Parsed); err != nil {
			return nil, fmt.Errorf("decode parsed payload of proposal %s: %w", r.ID, err)
		}
	}
	if len(r.LineItems) > 0 {
		if err := json.Unmarshal(r.LineItems, &out.LineItems); err != nil {
			return nil, fmt.Errorf("decode line items of proposal %s: %w", r.ID, err)
		}
	}
	if len(r.ScoreBreakdown) > 0 {
		if err := json.Unmarshal(r.ScoreBreakdown, &out.ScoreBreakdown); err != nil {
			return nil, fmt.Errorf("decode score breakdown of proposal %s: %w", r.ID, err)
		}
	}
	return out, nil
}

func (s *Store) UpsertProposal(ctx context.Context, p *procurement.Proposal) error {
	var parsed, lineItems, breakdown []byte
	var err error
	if p.Parsed != nil {
		if parsed, err = json.Marshal(p.Parsed); err != nil {
			return fmt.Errorf("encode parsed payload: %w", err)
		}
	}
	if p.LineItems != nil {
		if lineItems, err = json.Marshal(p.LineItems); err != nil {
			return fmt.Errorf("encode line items: %w", err)
		}
	}
	if p.ScoreBreakdown != nil {
		if breakdown, err = json.Marshal(p.ScoreBreakdown); err != nil {
			return fmt.Errorf("encode score breakdown: %w", err)
		}
	}
	query := `
        INSERT INTO proposals
            (id, rfp_id, vendor_id, raw_email, parsed, total_price, currency, delivery_days,
             payment_terms, warranty, line_items, score_overall, score_breakdown, ai_summary,
             created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        ON CONFLICT (rfp_id, vendor_id) DO UPDATE SET
            raw_email = EXCLUDED.raw_email,
            parsed = EXCLUDED.parsed,
            total_price = EXCLUDED.total_price,
            currency = EXCLUDED.currency,
            delivery_days = EXCLUDED.delivery_days,
            payment_terms = EXCLUDED.payment_terms,
            warranty = EXCLUDED.warranty,
            line_items = EXCLUDED.line_items,
            score_overall = EXCLUDED.score_overall,
            score_breakdown = EXCLUDED.score_breakdown,
            ai_summary = EXCLUDED.ai_summary,
            updated_at = EXCLUDED.updated_at
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query,
		p.ID, p.RfpID, p.VendorID, p.RawEmail, parsed, p.TotalPrice, p.Currency,
		p.DeliveryDays, p.PaymentTerms, p.Warranty, lineItems, p.ScoreOverall,
		breakdown, p.AISummary, p.CreatedAt, p.UpdatedAt).
		Scan(&p.ID, &p.CreatedAt)
}

func (s *Store) ListProposalsByRfp(ctx context.Context, rfpID string) ([]procurement.Proposal, error) {
	rows := []proposalRow{}
	query := `SELECT * FROM proposals WHERE rfp_id=$1 ORDER BY created_at DESC, id ASC`
	if err := s.db.SelectContext(ctx, &rows, query, rfpID); err != nil {
		return nil, err
	}
	out := make([]procurement.Proposal, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// orEmpty keeps JSONB columns as [] instead of null for nil slices.
func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
