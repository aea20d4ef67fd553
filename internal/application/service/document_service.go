package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
)

// DocumentConfig carries the static pieces of the return instructions
type DocumentConfig struct {
	PortalBaseURL string
	ReturnAddress string
	SupportEmail  string
}

// ReturnInstructions points at the rendered document and its QR code
type ReturnInstructions struct {
	HTMLPath string `json:"html_path"`
	QRPath   string `json:"qr_path"`
}

// DocumentService renders customer-facing return documents
type DocumentService interface {
	GenerateReturnInstructions(ctx context.Context, rmaID string) (*ReturnInstructions, error)
}

type documentServiceImpl struct {
	rmaRepo   port.RmaRepository
	labelRepo port.LabelRepository
	storage   port.FileStorage
	cfg       DocumentConfig
	logger    Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	rmaRepo port.RmaRepository,
	labelRepo port.LabelRepository,
	storage port.FileStorage,
	cfg DocumentConfig,
	logger Logger,
) DocumentService {
	return &documentServiceImpl{
		rmaRepo:   rmaRepo,
		labelRepo: labelRepo,
		storage:   storage,
		cfg:       cfg,
		logger:    logger,
	}
}

var returnInstructionsTmpl = template.Must(template.New("return-instructions").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Return Instructions {{.RmaID}}</title></head>
<body>
  <h1>Return Instructions</h1>
  <p>RMA: <strong>{{.RmaID}}</strong></p>
  <p>Order: {{.OrderID}} / {{.SKU}}</p>
  <p>Ship to:</p>
  <pre>{{.ReturnAddress}}</pre>
  {{if .TrackingNumber}}<p>Tracking number: {{.TrackingNumber}} ({{.Carrier}})</p>{{end}}
  <p>Write the RMA number on the outside of the package. Scan the QR code at
  <a href="{{.StatusURL}}">{{.StatusURL}}</a> to check the status of your return.</p>
  <p>Questions? Contact {{.SupportEmail}}.</p>
</body>
</html>
`))

// GenerateReturnInstructions renders the instructions page and a QR code
// linking back to the RMA status page, and stores both under the RMA's
// document prefix
func (s *documentServiceImpl) GenerateReturnInstructions(ctx context.Context, rmaID string) (*ReturnInstructions, error) {
	rma, err := s.rmaRepo.GetByID(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get rma: %w", err)
	}
	if rma == nil {
		return nil, ErrRmaNotFound
	}

	label, err := s.labelRepo.Get(ctx, rmaID)
	if err != nil {
		return nil, fmt.Errorf("get label: %w", err)
	}

	statusURL := fmt.Sprintf("%s/rma/%s", s.cfg.PortalBaseURL, rma.RmaID)
	data := struct {
		RmaID          string
		OrderID        string
		SKU            string
		ReturnAddress  string
		SupportEmail   string
		StatusURL      string
		TrackingNumber string
		Carrier        string
	}{
		RmaID:         rma.RmaID,
		OrderID:       rma.OrderID,
		SKU:           rma.SKU,
		ReturnAddress: s.cfg.ReturnAddress,
		SupportEmail:  s.cfg.SupportEmail,
		StatusURL:     statusURL,
	}
	if label != nil {
		data.TrackingNumber = label.TrackingNumber
		data.Carrier = label.Carrier
	}

	var html bytes.Buffer
	if err := returnInstructionsTmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render instructions: %w", err)
	}

	qr, err := qrcode.Encode(statusURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	prefix := fmt.Sprintf("rma/%s/%s/%s/pdf", rma.Brand, rma.OrderID, rma.RmaID)
	result := &ReturnInstructions{
		HTMLPath: prefix + "/return-instructions.html",
		QRPath:   prefix + "/status-qr.png",
	}
	if err := s.storage.Save(ctx, result.HTMLPath, html.Bytes()); err != nil {
		return nil, fmt.Errorf("store instructions: %w", err)
	}
	if err := s.storage.Save(ctx, result.QRPath, qr); err != nil {
		return nil, fmt.Errorf("store qr: %w", err)
	}

	s.logger.Info("Return instructions generated", "rma_id", rmaID, "path", result.HTMLPath)
	return result, nil
}
