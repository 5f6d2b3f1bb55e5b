package compliance

import (
	"context"
	"fmt"
	"strings"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EnsureControls returns the user's controls, seeding the industry template
// on first access. Seeding upserts by (user, control_id) so a partially
// seeded catalog is completed on retry.
func (s *Service) EnsureControls(ctx context.Context, p common.Principal) ([]*Control, error) {
	controls, err := s.store.ListControls(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list controls: %w", err)
	}
	if len(controls) > 0 {
		return controls, nil
	}

	industry := common.NormalizeIndustry(p.Industry)
	template := TemplateFor(industry)
	now := s.now().UTC()
	for _, t := range template {
		c := &Control{
			ID:             uuid.New().String(),
			UserID:         p.UserID,
			OrganizationID: p.OrganizationID,
			Industry:       industry,
			ControlID:      t.ControlID,
			Name:           t.Name,
			Description:    t.Description,
			Standard:       t.Standard,
			Category:       t.Category,
			Status:         StatusNotImplemented,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.store.UpsertControl(ctx, c); err != nil {
			return nil, fmt.Errorf("seed control %s: %w", t.ControlID, err)
		}
	}

	s.logger.Info("compliance controls seeded",
		zap.String("user_id", p.UserID),
		zap.String("industry", industry),
		zap.Int("count", len(template)))

	controls, err = s.store.ListControls(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list controls: %w", err)
	}
	return controls, nil
}

// UpdateControlStatus sets a control's status and notes and records a
// control_status_update ledger entry. Moving to implemented stamps the
// implementation and verification times.
func (s *Service) UpdateControlStatus(ctx context.Context, p common.Principal, controlID, status, notes string) (*Control, *ledger.Transaction, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !validControlStatus(status) {
		return nil, nil, fmt.Errorf("%w: invalid control status %q", common.ErrValidation, status)
	}

	c, err := s.store.GetControl(ctx, p.UserID, controlID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	c.Status = status
	c.Notes = notes
	c.UpdatedAt = now
	if status == StatusImplemented {
		c.ImplementedAt = &now
		c.VerifiedAt = &now
	}

	tx, err := s.ledger.Record(ctx, ledger.TypeControlStatusUpdate, c.ID, p.OrganizationID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.store.UpdateControl(ctx, c); err != nil {
		return nil, nil, fmt.Errorf("update control: %w", err)
	}

	s.logger.Info("control status updated",
		zap.String("control_id", c.ControlID),
		zap.String("status", status),
		zap.String("user_id", p.UserID))
	return c, tx, nil
}
