package compliance

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/FairForge/dctip/internal/blob"
	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadDocument records document metadata and a document_uploaded ledger
// entry. Content is stored in the blob store when one is configured.
func (s *Service) UploadDocument(ctx context.Context, p common.Principal, req UploadDocumentRequest) (*Document, error) {
	required := []struct{ field, value string }{
		{"title", req.Title},
		{"document_type", req.DocumentType},
		{"compliance_standard", req.ComplianceStandard},
		{"file_name", req.FileName},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, fmt.Errorf("%w: %s is required", common.ErrValidation, r.field)
		}
	}

	content, err := base64.StdEncoding.DecodeString(req.FileContent)
	if err != nil {
		return nil, fmt.Errorf("%w: file_content is not valid base64", common.ErrValidation)
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	size := req.FileSize
	if size <= 0 {
		size = int64(len(content))
	}

	d := &Document{
		ID:                 uuid.New().String(),
		OrganizationID:     p.OrganizationID,
		UploadedBy:         p.UserID,
		Title:              req.Title,
		Description:        req.Description,
		DocumentType:       req.DocumentType,
		ComplianceStandard: req.ComplianceStandard,
		FileName:           req.FileName,
		FileSize:           size,
		Tags:               tags,
		UploadedAt:         s.now().UTC(),
	}

	if s.blobs != nil && len(content) > 0 {
		key := blob.Key(d.OrganizationID, d.ID)
		if err := s.blobs.Put(ctx, key, content); err != nil {
			return nil, fmt.Errorf("store document content: %w", err)
		}
		d.FilePath = key
	}

	tx, err := s.ledger.Record(ctx, ledger.TypeDocumentUploaded, d.ID, p.OrganizationID)
	if err != nil {
		s.discardContent(ctx, d)
		return nil, err
	}
	d.BlockchainHash = tx.TransactionHash

	if err := s.store.CreateDocument(ctx, d); err != nil {
		s.discardContent(ctx, d)
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.logger.Info("compliance document uploaded",
		zap.String("document_id", d.ID),
		zap.String("standard", d.ComplianceStandard),
		zap.Int64("size", d.FileSize))
	return d, nil
}

// discardContent removes content stored for a document that was never recorded.
func (s *Service) discardContent(ctx context.Context, d *Document) {
	if s.blobs == nil || d.FilePath == "" {
		return
	}
	if err := s.blobs.Delete(ctx, d.FilePath); err != nil {
		s.logger.Warn("failed to discard document content",
			zap.String("document_id", d.ID),
			zap.String("key", d.FilePath),
			zap.Error(err))
	}
}

func (s *Service) ListDocuments(ctx context.Context, p common.Principal) ([]*Document, error) {
	docs, err := s.store.ListDocuments(ctx, p.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document owned by the caller's organization and
// records a document_deleted ledger entry. A missing document writes nothing.
func (s *Service) DeleteDocument(ctx context.Context, p common.Principal, id string) (*ledger.Transaction, error) {
	d, err := s.store.GetDocument(ctx, p.OrganizationID, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.ledger.Record(ctx, ledger.TypeDocumentDeleted, d.ID, p.OrganizationID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteDocument(ctx, p.OrganizationID, d.ID); err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}

	if s.blobs != nil && d.FilePath != "" {
		if err := s.blobs.Delete(ctx, d.FilePath); err != nil {
			s.logger.Warn("failed to delete document content",
				zap.String("document_id", d.ID),
				zap.String("key", d.FilePath),
				zap.Error(err))
		}
	}

	s.logger.Info("compliance document deleted", zap.String("document_id", d.ID))
	return tx, nil
}
