package compliance

import (
	"context"
	"fmt"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/ledger"
	"github.com/FairForge/dctip/internal/threats"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxRecommendations  = 10
	highThreatThreshold = 3
	minDocuments        = 3
	neutralAuditScore   = 50.0
)

// auditFacts are the organization-wide counts the audit rules read.
type auditFacts struct {
	ActiveThreats   int
	CriticalThreats int
	HighThreats     int
	Documents       int
	Incidents       int
}

type auditResult struct {
	Passed          int
	Failed          int
	Warnings        int
	Findings        []Finding
	Recommendations []string
}

func (r *auditResult) score() float64 {
	total := r.Passed + r.Failed + r.Warnings
	if total == 0 {
		return neutralAuditScore
	}
	return round1(float64(r.Passed) / float64(total) * 100)
}

// evaluateAudit applies the audit rules in order. Critical threat exposure
// counts toward Failed alongside unimplemented controls.
func evaluateAudit(controls []*Control, f auditFacts) auditResult {
	r := auditResult{Findings: []Finding{}, Recommendations: []string{}}

	for _, c := range controls {
		switch c.Status {
		case StatusImplemented:
			r.Passed++
		case StatusPartial:
			r.Warnings++
			r.Findings = append(r.Findings, Finding{
				Severity: SeverityMedium,
				Type:     "partial_implementation",
				Message:  fmt.Sprintf("Control '%s' is only partially implemented", c.Name),
				Control:  c.ControlID,
				Standard: c.Standard,
			})
		default:
			r.Failed++
			r.Findings = append(r.Findings, Finding{
				Severity: SeverityHigh,
				Type:     "control_gap",
				Message:  fmt.Sprintf("Control '%s' is not implemented", c.Name),
				Control:  c.ControlID,
				Standard: c.Standard,
			})
			r.Recommendations = append(r.Recommendations,
				fmt.Sprintf("Implement %s (%s) to meet %s requirements", c.Name, c.ControlID, c.Standard))
		}
	}

	if f.CriticalThreats > 0 {
		r.Failed++
		r.Findings = append(r.Findings, Finding{
			Severity: SeverityCritical,
			Type:     "critical_threats",
			Message:  fmt.Sprintf("%d active critical threats detected", f.CriticalThreats),
			Count:    f.CriticalThreats,
		})
		r.Recommendations = append(r.Recommendations,
			"Immediately contain and remediate all active critical threats")
	}

	if f.HighThreats > highThreatThreshold {
		r.Warnings++
		r.Findings = append(r.Findings, Finding{
			Severity: SeverityHigh,
			Type:     "high_threat_volume",
			Message:  fmt.Sprintf("%d active high-severity threats detected", f.HighThreats),
			Count:    f.HighThreats,
		})
		r.Recommendations = append(r.Recommendations,
			"Prioritize mitigation of high-severity threats to reduce exposure")
	}

	if f.Documents < minDocuments {
		r.Warnings++
		r.Findings = append(r.Findings, Finding{
			Severity: SeverityMedium,
			Type:     "insufficient_documentation",
			Message:  fmt.Sprintf("Only %d compliance documents on file", f.Documents),
			Count:    f.Documents,
		})
		r.Recommendations = append(r.Recommendations,
			"Upload security policies, procedures and audit evidence")
	}

	if f.Incidents == 0 && f.ActiveThreats > 0 {
		r.Warnings++
		r.Findings = append(r.Findings, Finding{
			Severity: SeverityMedium,
			Type:     "missing_incident_response",
			Message:  "No incident responses recorded while threats are active",
			Count:    f.ActiveThreats,
		})
		r.Recommendations = append(r.Recommendations,
			"Document incident response actions for active threats")
	}

	if len(r.Recommendations) > maxRecommendations {
		r.Recommendations = r.Recommendations[:maxRecommendations]
	}
	return r
}

func (s *Service) gatherAuditFacts(ctx context.Context, org string) (auditFacts, error) {
	var f auditFacts
	var err error
	if f.ActiveThreats, err = s.threats.CountThreats(ctx, org, threats.StatusActive, ""); err != nil {
		return f, fmt.Errorf("count threats: %w", err)
	}
	if f.CriticalThreats, err = s.threats.CountThreats(ctx, org, threats.StatusActive, threats.SeverityCritical); err != nil {
		return f, fmt.Errorf("count threats: %w", err)
	}
	if f.HighThreats, err = s.threats.CountThreats(ctx, org, threats.StatusActive, threats.SeverityHigh); err != nil {
		return f, fmt.Errorf("count threats: %w", err)
	}
	if f.Documents, err = s.store.CountDocuments(ctx, org); err != nil {
		return f, fmt.Errorf("count documents: %w", err)
	}
	if f.Incidents, err = s.threats.CountIncidents(ctx, org); err != nil {
		return f, fmt.Errorf("count incidents: %w", err)
	}
	return f, nil
}

// RunAudit evaluates the audit rules against current state and appends a new
// audit. The ledger entry is written before the audit; if the audit insert
// fails the entry remains without a matching audit.
func (s *Service) RunAudit(ctx context.Context, p common.Principal) (*Audit, error) {
	industry := common.NormalizeIndustry(p.Industry)

	controls, err := s.EnsureControls(ctx, p)
	if err != nil {
		return nil, err
	}
	facts, err := s.gatherAuditFacts(ctx, p.OrganizationID)
	if err != nil {
		return nil, err
	}

	result := evaluateAudit(controls, facts)
	a := &Audit{
		ID:               uuid.New().String(),
		OrganizationID:   p.OrganizationID,
		AuditorID:        p.UserID,
		AuditType:        AuditTypeOnDemand,
		Industry:         industry,
		StandardsChecked: StandardsFor(industry),
		OverallScore:     result.score(),
		PassedControls:   result.Passed,
		FailedControls:   result.Failed,
		Warnings:         result.Warnings,
		Findings:         result.Findings,
		Recommendations:  result.Recommendations,
		Timestamp:        s.now().UTC(),
		Status:           AuditStatusCompleted,
	}

	tx, err := s.ledger.Record(ctx, ledger.TypeComplianceAudit, a.ID, p.OrganizationID)
	if err != nil {
		return nil, err
	}
	a.BlockchainHash = tx.TransactionHash

	if err := s.store.CreateAudit(ctx, a); err != nil {
		s.logger.Error("audit insert failed after ledger entry",
			zap.String("audit_id", a.ID),
			zap.String("transaction_hash", tx.TransactionHash),
			zap.Error(err))
		return nil, fmt.Errorf("create audit: %w", err)
	}

	s.metrics.RecordAudit(industry)
	s.logger.Info("compliance audit completed",
		zap.String("audit_id", a.ID),
		zap.String("organization_id", a.OrganizationID),
		zap.Float64("overall_score", a.OverallScore),
		zap.Int("findings", len(a.Findings)))
	return a, nil
}

// ListAudits returns the organization's audits, newest first.
func (s *Service) ListAudits(ctx context.Context, p common.Principal, limit int) ([]*Audit, error) {
	if limit <= 0 {
		limit = DefaultAuditListLimit
	}
	if limit > s.auditHistory {
		limit = s.auditHistory
	}
	audits, err := s.store.ListAudits(ctx, p.OrganizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	return audits, nil
}
