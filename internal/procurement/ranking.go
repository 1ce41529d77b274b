package procurement

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/procurely/rfp-pilot/internal/extract"
)

// rankingInput is the per-proposal view embedded in the refinement prompt.
type rankingInput struct {
	ID           string   `json:"id"`
	VendorID     string   `json:"vendorId"`
	TotalPrice   *float64 `json:"totalPrice"`
	DeliveryDays *int     `json:"deliveryDays"`
	PaymentTerms *string  `json:"paymentTerms"`
	Warranty     *string  `json:"warranty"`
	ScoreOverall *float64 `json:"scoreOverall"`
}

// Rank orders the proposals of one RFP into a recommendation list.
//
// The deterministic baseline always runs: a stable sort by scoreOverall
// descending with missing scores treated as 0, ties keeping retrieval order.
// When the generator is available, a refinement pass may fully replace the
// baseline; any refinement failure falls back to the baseline and is only
// logged. This is the single documented case of an absorbed error.
func (s *Service) Rank(ctx context.Context, rfp *Rfp, proposals []Proposal) []Recommendation {
	baseline := baselineRanking(proposals)
	if len(baseline) == 0 {
		return baseline
	}

	refined, ok := s.refineRanking(ctx, rfp, proposals)
	if !ok {
		return baseline
	}
	return refined
}

func baselineRanking(proposals []Proposal) []Recommendation {
	ordered := make([]Proposal, len(proposals))
	copy(ordered, proposals)

	sort.SliceStable(ordered, func(i, j int) bool {
		return scoreOrZero(ordered[i]) > scoreOrZero(ordered[j])
	})

	recommendations := make([]Recommendation, 0, len(ordered))
	for i, p := range ordered {
		recommendations = append(recommendations, Recommendation{
			ProposalID:   p.ID,
			Rank:         i + 1,
			OverallScore: scoreOrZero(p),
			Reason:       "Ranked based on internal overall score (higher overall score = better).",
		})
	}
	return recommendations
}

func scoreOrZero(p Proposal) float64 {
	if p.ScoreOverall == nil {
		return 0
	}
	return *p.ScoreOverall
}

// refineRanking asks the generator for an ordering over all proposals at
// once. Returns ok=false on any failure so the caller keeps the baseline.
func (s *Service) refineRanking(ctx context.Context, rfp *Rfp, proposals []Proposal) ([]Recommendation, bool) {
	if s.gen == nil {
		return nil, false
	}

	inputs := make([]rankingInput, 0, len(proposals))
	for _, p := range proposals {
		inputs = append(inputs, rankingInput{
			ID:           p.ID,
			VendorID:     p.VendorID,
			TotalPrice:   p.TotalPrice,
			DeliveryDays: p.DeliveryDays,
			PaymentTerms: p.PaymentTerms,
			Warranty:     p.Warranty,
			ScoreOverall: p.ScoreOverall,
		})
	}

	raw, err := s.gen.GenerateJSON(ctx, buildRankingPrompt(rfp, inputs))
	if err != nil {
		s.logger.Warn("ranking refinement call failed; keeping baseline",
			zap.String("rfp_id", rfp.ID),
			zap.Error(err),
		)
		return nil, false
	}

	data, err := extract.ParseObject(raw)
	if err != nil {
		s.logger.Warn("ranking refinement output unparsable; keeping baseline",
			zap.String("rfp_id", rfp.ID),
			zap.Error(err),
		)
		return nil, false
	}

	items, ok := data["recommendations"].([]any)
	if !ok {
		s.logger.Warn("ranking refinement missing recommendations array; keeping baseline",
			zap.String("rfp_id", rfp.ID),
		)
		return nil, false
	}

	recommendations := make([]Recommendation, 0, len(items))
	for _, raw := range items {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		rec := Recommendation{
			ProposalID: stringField(obj, "proposalId"),
			Reason:     stringField(obj, "reason"),
		}
		if rank, ok := integerField(obj, "rank"); ok {
			rec.Rank = rank
		}
		if score, ok := numberField(obj, "overallScore"); ok {
			rec.OverallScore = score
		}
		recommendations = append(recommendations, rec)
	}

	if len(recommendations) == 0 {
		return nil, false
	}

	// Generator-assigned ranks are trusted as-is; no permutation check.
	s.logger.Debug("ranking refined by generator",
		zap.String("rfp_id", rfp.ID),
		zap.Int("recommendations", len(recommendations)),
	)

	return recommendations, true
}
