package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

// MaxEvidenceSize is the upload ceiling in bytes
const MaxEvidenceSize = 50 * 1024 * 1024

// allowedEvidenceExtensions are the file types customers may upload
var allowedEvidenceExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".mp4":  true,
	".mov":  true,
	".pdf":  true,
}

// ErrEvidenceTooLarge is returned when the upload exceeds MaxEvidenceSize
var ErrEvidenceTooLarge = errors.New("evidence file too large")

// ErrEvidenceTypeNotAllowed is returned for file extensions outside the
// allowed set
var ErrEvidenceTypeNotAllowed = errors.New("evidence file type not allowed")

// ErrEvidenceUnreadable is returned when a PDF upload cannot be parsed
var ErrEvidenceUnreadable = errors.New("evidence file unreadable")

// EvidenceService stores customer-uploaded evidence files
type EvidenceService interface {
	Upload(ctx context.Context, rmaID, fileName, mimeType string, content []byte) (*entity.EvidenceRecord, error)
	List(ctx context.Context, rmaID string) ([]entity.EvidenceRecord, error)
}

type evidenceServiceImpl struct {
	rmaRepo   port.RmaRepository
	tsRepo    port.TroubleshootingRepository
	auditRepo port.AuditRepository
	storage   port.FileStorage
	inspector port.EvidenceInspector
	logger    Logger
}

// NewEvidenceService creates a new EvidenceService
func NewEvidenceService(
	rmaRepo port.RmaRepository,
	tsRepo port.TroubleshootingRepository,
	auditRepo port.AuditRepository,
	storage port.FileStorage,
	inspector port.EvidenceInspector,
	logger Logger,
) EvidenceService {
	return &evidenceServiceImpl{
		rmaRepo:   rmaRepo,
		tsRepo:    tsRepo,
		auditRepo: auditRepo,
		storage:   storage,
		inspector: inspector,
		logger:    logger,
	}
}

// Upload validates the file, writes it under the RMA's evidence prefix, and
// appends the record to the troubleshooting data
func (s *evidenceServiceImpl) Upload(ctx context.Context, rmaID, fileName, mimeType string, content []byte) (*entity.EvidenceRecord, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}
	if rma.Status.IsTerminal() {
		return nil, &status.TransitionError{Current: rma.Status, Action: status.ActionUploadEvidence}
	}

	ext := strings.ToLower(path.Ext(fileName))
	if !allowedEvidenceExtensions[ext] {
		return nil, ErrEvidenceTypeNotAllowed
	}
	if int64(len(content)) > MaxEvidenceSize {
		return nil, ErrEvidenceTooLarge
	}

	if ext == ".pdf" && s.inspector != nil {
		pages, ierr := s.inspector.InspectPDF(content)
		if ierr != nil {
			s.logger.Error("PDF inspection failed", "error", ierr, "rma_id", rmaID, "file_name", fileName)
			return nil, ErrEvidenceUnreadable
		}
		if pages == 0 {
			return nil, ErrEvidenceUnreadable
		}
	}

	now := time.Now().UTC()
	evidenceID := uuid.NewString()
	filePath := fmt.Sprintf("rma/%s/%s/%s/evidence/%04d/%02d/%s%s",
		rma.Brand, rma.OrderID, rma.RmaID, now.Year(), int(now.Month()), evidenceID, ext)

	if err := s.storage.Save(ctx, filePath, content); err != nil {
		s.logger.Error("Failed to store evidence file", "error", err, "rma_id", rmaID, "path", filePath)
		return nil, fmt.Errorf("store evidence: %w", err)
	}

	data, err := s.tsRepo.Get(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get troubleshooting data: %w", err)
	}
	if data == nil {
		data = &entity.TroubleshootingData{RmaID: rmaID}
	}

	record := entity.EvidenceRecord{
		EvidenceID: evidenceID,
		FileName:   fileName,
		FilePath:   filePath,
		FileSize:   int64(len(content)),
		MimeType:   mimeType,
		UploadedAt: now,
	}
	data.Evidence = append(data.Evidence, record)
	data.UpdatedAt = now

	if err := s.tsRepo.Save(ctx, data); err != nil {
		return nil, fmt.Errorf("save troubleshooting data: %w", err)
	}

	recordAudit(ctx, s.auditRepo, s.logger, rmaID, entity.EventEvidenceUploaded, entity.ActorCustomer, map[string]any{
		"evidence_id": evidenceID,
		"file_name":   fileName,
		"file_size":   record.FileSize,
		"mime_type":   mimeType,
	})

	s.logger.Info("Evidence uploaded", "rma_id", rmaID, "evidence_id", evidenceID, "file_size", record.FileSize)
	return &record, nil
}

// List returns the evidence records attached to the RMA
func (s *evidenceServiceImpl) List(ctx context.Context, rmaID string) ([]entity.EvidenceRecord, error) {
	data, err := s.tsRepo.Get(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get troubleshooting data: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	return data.Evidence, nil
}
