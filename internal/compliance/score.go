package compliance

import (
	"context"
	"fmt"
	"math"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/threats"
)

const (
	recentAuditWindow = 5
	recentAuditShown  = 3
	trendBand         = 5.0
)

// threatCounts are the organization-scoped counts the score reads.
type threatCounts struct {
	Total    int
	Active   int
	Critical int // active and critical
}

func (s *Service) countThreats(ctx context.Context, org string) (threatCounts, error) {
	var tc threatCounts
	var err error
	if tc.Total, err = s.threats.CountThreats(ctx, org, "", ""); err != nil {
		return tc, err
	}
	if tc.Active, err = s.threats.CountThreats(ctx, org, threats.StatusActive, ""); err != nil {
		return tc, err
	}
	if tc.Critical, err = s.threats.CountThreats(ctx, org, threats.StatusActive, threats.SeverityCritical); err != nil {
		return tc, err
	}
	return tc, nil
}

func statusCounts(controls []*Control) ControlsStatus {
	var cs ControlsStatus
	for _, c := range controls {
		switch c.Status {
		case StatusImplemented:
			cs.Implemented++
		case StatusPartial:
			cs.Partial++
		default:
			cs.NotImplemented++
		}
	}
	cs.Total = cs.Implemented + cs.Partial + cs.NotImplemented
	return cs
}

// overallScore combines threat exposure and control coverage into [0, 100].
func overallScore(tc threatCounts, cs ControlsStatus) float64 {
	score := 100.0
	if tc.Total > 0 {
		score -= float64(tc.Active) / float64(tc.Total) * 30
	}
	score -= math.Min(float64(tc.Critical)*5, 20)
	if cs.Total > 0 {
		implementedBonus := float64(cs.Implemented) / float64(cs.Total) * 25
		partialBonus := float64(cs.Partial) / float64(cs.Total) * 10
		score = score*0.7 + implementedBonus + partialBonus
	}
	return clamp(score)
}

func trendOf(audits []*Audit) string {
	if len(audits) < 2 {
		return TrendStable
	}
	latest, previous := audits[0].OverallScore, audits[1].OverallScore
	switch {
	case latest > previous+trendBand:
		return TrendImproving
	case latest < previous-trendBand:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func (s *Service) standardScores(industry string, controls []*Control, overall float64) map[string]StandardScore {
	out := make(map[string]StandardScore)
	for _, std := range StandardsFor(industry) {
		var ss StandardScore
		for _, c := range controls {
			if c.Standard != std {
				continue
			}
			ss.TotalControls++
			if c.Status == StatusImplemented {
				ss.Implemented++
			}
		}
		switch {
		case ss.TotalControls > 0:
			v := round1(float64(ss.Implemented) / float64(ss.TotalControls) * 100)
			ss.Score = &v
			ss.Measured = true
		case s.estimateUnmeasured:
			v := round1(clamp(overall + s.jitter()))
			ss.Score = &v
		}
		out[std] = ss
	}
	return out
}

// ComputeScore derives the current compliance score from stored state. The
// control catalog is seeded first; nothing else is persisted and the
// organization's score gauge is updated.
func (s *Service) ComputeScore(ctx context.Context, p common.Principal) (*Score, error) {
	industry := common.NormalizeIndustry(p.Industry)

	tc, err := s.countThreats(ctx, p.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("count threats: %w", err)
	}
	controls, err := s.EnsureControls(ctx, p)
	if err != nil {
		return nil, err
	}
	audits, err := s.store.ListAudits(ctx, p.OrganizationID, recentAuditWindow)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}

	cs := statusCounts(controls)
	overall := round1(overallScore(tc, cs))

	recent := make([]AuditSummary, 0, recentAuditShown)
	for i := 0; i < len(audits) && i < recentAuditShown; i++ {
		recent = append(recent, audits[i].Summary())
	}

	impact := 0.0
	if tc.Total > 0 {
		impact = round1(float64(tc.Active) / float64(tc.Total) * 100)
	}

	s.metrics.SetComplianceScore(p.OrganizationID, overall)

	return &Score{
		OverallScore:     overall,
		Industry:         industry,
		ScoresByStandard: s.standardScores(industry, controls, overall),
		ControlsStatus:   cs,
		RecentAudits:     recent,
		ThreatImpact:     impact,
		Trend:            trendOf(audits),
		LastCalculated:   s.now().UTC(),
	}, nil
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
