package compliance

import (
	"context"
	"fmt"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/threats"
)

// BuildReport assembles the current score, latest audit and summaries.
func (s *Service) BuildReport(ctx context.Context, p common.Principal) (*Report, error) {
	score, err := s.ComputeScore(ctx, p)
	if err != nil {
		return nil, err
	}

	audits, err := s.store.ListAudits(ctx, p.OrganizationID, 1)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	documents, err := s.store.CountDocuments(ctx, p.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	active, err := s.threats.CountThreats(ctx, p.OrganizationID, threats.StatusActive, "")
	if err != nil {
		return nil, fmt.Errorf("count threats: %w", err)
	}
	mitigated, err := s.threats.CountThreats(ctx, p.OrganizationID, threats.StatusMitigated, "")
	if err != nil {
		return nil, fmt.Errorf("count threats: %w", err)
	}

	cs := score.ControlsStatus
	report := &Report{
		ComplianceScore: score,
		ControlsSummary: ControlsSummary{
			TotalControls:  cs.Total,
			Implemented:    cs.Implemented,
			Partial:        cs.Partial,
			NotImplemented: cs.NotImplemented,
		},
		DocumentsSummary: DocumentsSummary{TotalDocuments: documents},
		DocumentsCount:   documents,
		ThreatsSummary:   ThreatsSummary{Active: active, Mitigated: mitigated},
		Recommendations:  []string{},
		GeneratedAt:      s.now().UTC(),
	}
	if len(audits) > 0 {
		report.LatestAudit = audits[0]
		if audits[0].Recommendations != nil {
			report.Recommendations = audits[0].Recommendations
		}
	}
	return report, nil
}
