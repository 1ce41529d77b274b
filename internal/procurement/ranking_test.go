package procurement

import (
	"context"
	"errors"
	"testing"
)

func proposalWithScore(id string, score *float64) Proposal {
	return Proposal{ID: id, ScoreOverall: score}
}

func f(v float64) *float64 { return &v }

func TestRankBaselineOrdersByScore(t *testing.T) {
	env := newTestEnv(t, scriptedReply{err: errors.New("model offline")})
	rfp := &Rfp{ID: "r1", Title: "Laptops"}

	recs := env.svc.Rank(context.Background(), rfp, []Proposal{
		proposalWithScore("p-low", f(50)),
		proposalWithScore("p-high", f(80)),
		proposalWithScore("p-unscored", nil),
	})

	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
	wantOrder := []string{"p-high", "p-low", "p-unscored"}
	for i, want := range wantOrder {
		if recs[i].ProposalID != want {
			t.Errorf("rank %d: got %s, want %s", i+1, recs[i].ProposalID, want)
		}
		if recs[i].Rank != i+1 {
			t.Errorf("rank %d numbered %d", i+1, recs[i].Rank)
		}
	}
	if recs[2].OverallScore != 0 {
		t.Errorf("missing score should rank as 0, got %v", recs[2].OverallScore)
	}
}

func TestRankBaselineStableOnTies(t *testing.T) {
	env := newTestEnv(t, scriptedReply{err: errors.New("model offline")})
	rfp := &Rfp{ID: "r1"}

	recs := env.svc.Rank(context.Background(), rfp, []Proposal{
		proposalWithScore("first", f(70)),
		proposalWithScore("second", f(70)),
	})

	if recs[0].ProposalID != "first" || recs[1].ProposalID != "second" {
		t.Errorf("tie broke retrieval order: %+v", recs)
	}
}

func TestRankEmptyInput(t *testing.T) {
	env := newTestEnv(t)

	recs := env.svc.Rank(context.Background(), &Rfp{ID: "r1"}, nil)
	if len(recs) != 0 {
		t.Fatalf("expected empty recommendations, got %+v", recs)
	}
	if len(env.gen.prompts) != 0 {
		t.Fatal("generator called for empty proposal set")
	}
}

func TestRankRefinementReplacesBaseline(t *testing.T) {
	env := newTestEnv(t, scriptedReply{text: `{
		"recommendations": [
			{"proposalId": "p-low", "rank": 1, "overallScore": 95, "reason": "Best overall value despite lower internal score."},
			{"proposalId": "p-high", "rank": 2, "overallScore": 60, "reason": "Long delivery time."}
		]
	}`})
	rfp := &Rfp{ID: "r1"}

	recs := env.svc.Rank(context.Background(), rfp, []Proposal{
		proposalWithScore("p-low", f(50)),
		proposalWithScore("p-high", f(80)),
	})

	if recs[0].ProposalID != "p-low" || recs[0].Rank != 1 {
		t.Fatalf("refinement not applied: %+v", recs)
	}
	if recs[0].Reason != "Best overall value despite lower internal score." {
		t.Errorf("refined reason lost: %q", recs[0].Reason)
	}
	if recs[0].OverallScore != 95 {
		t.Errorf("refined score lost: %v", recs[0].OverallScore)
	}
}

func TestRankRefinementMalformedKeepsBaseline(t *testing.T) {
	cases := []struct {
		name  string
		reply scriptedReply
	}{
		{"unparsable text", scriptedReply{text: "I think the first proposal is best"}},
		{"missing array", scriptedReply{text: `{"verdict": "first one"}`}},
		{"empty array", scriptedReply{text: `{"recommendations": []}`}},
		{"generator error", scriptedReply{err: errors.New("quota exhausted")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, tc.reply)

			recs := env.svc.Rank(context.Background(), &Rfp{ID: "r1"}, []Proposal{
				proposalWithScore("p-low", f(50)),
				proposalWithScore("p-high", f(80)),
			})

			if len(recs) != 2 || recs[0].ProposalID != "p-high" {
				t.Fatalf("baseline not preserved: %+v", recs)
			}
		})
	}
}
