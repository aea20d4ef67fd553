package media

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
)

// PDFInspector implements port.EvidenceInspector using MuPDF. Uploaded
// documents are opened in memory and never written to disk before they pass.
type PDFInspector struct {
	logger *zap.Logger
}

// NewPDFInspector creates a new PDF inspector
func NewPDFInspector(logger *zap.Logger) *PDFInspector {
	return &PDFInspector{logger: logger}
}

// InspectPDF opens the document and returns its page count
func (p *PDFInspector) InspectPDF(data []byte) (int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		p.logger.Warn("Rejected unreadable PDF upload", zap.Error(err))
		return 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

// Verify interface compliance
var _ port.EvidenceInspector = (*PDFInspector)(nil)
