package ingestion

import (
	"context"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/blueprint-backend/internal/clients/gcp"
	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/platform/localmedia"
	"github.com/yungbote/blueprint-backend/internal/types"
)

// Ingestor turns a stored PDF into ordered Page records. Native text
// extraction runs first; pages whose text layer is too thin to be real
// (scanned drawings) are rasterized and sent through OCR. A page that fails
// both paths is recorded with empty text and zero confidence rather than
// aborting the document.
type Ingestor struct {
	log *logger.Logger
	pdf localmedia.PDFTools
	ocr gcp.Vision // nil when OCR is not configured

	// Pages whose trimmed native text is shorter than this are treated as
	// scanned and routed to OCR.
	MinNativeTextLen int
	RenderDPI        int
}

func NewIngestor(log *logger.Logger, pdf localmedia.PDFTools, ocr gcp.Vision) *Ingestor {
	return &Ingestor{
		log:              log.With("service", "Ingestor"),
		pdf:              pdf,
		ocr:              ocr,
		MinNativeTextLen: 32,
		RenderDPI:        300,
	}
}

// ExtractPages produces exactly pageCount Page records in page order. The
// second return value counts pages that yielded no text through either path.
func (in *Ingestor) ExtractPages(ctx context.Context, documentID uuid.UUID, pdfPath string, pageCount int) ([]*types.Page, int, error) {
	pages := make([]*types.Page, 0, pageCount)
	skipped := 0

	for number := 1; number <= pageCount; number++ {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}

		page := in.extractOne(ctx, documentID, pdfPath, number)
		if strings.TrimSpace(page.Text) == "" {
			skipped++
		}
		pages = append(pages, page)
	}
	return pages, skipped, nil
}

func (in *Ingestor) extractOne(ctx context.Context, documentID uuid.UUID, pdfPath string, number int) *types.Page {
	page := &types.Page{
		DocumentID: documentID,
		Number:     number,
		Method:     types.PageMethodNative,
	}

	text, err := in.pdf.ExtractPageText(ctx, pdfPath, number)
	if err != nil {
		in.log.Warn("native text extraction failed", "page", number, "error", err)
		text = ""
	}
	if len(strings.TrimSpace(text)) >= in.MinNativeTextLen {
		page.Text = text
		page.Confidence = 1.0
		return page
	}

	// Thin or missing text layer: treat as scanned and try OCR.
	ocrText, confidence, ok := in.ocrPage(ctx, pdfPath, number)
	if !ok {
		// Keep whatever the native layer gave us, even if thin.
		page.Text = text
		if strings.TrimSpace(text) != "" {
			page.Confidence = 0.5
		}
		return page
	}

	page.Text = ocrText
	page.Method = types.PageMethodOCR
	page.Confidence = confidence
	return page
}

func (in *Ingestor) ocrPage(ctx context.Context, pdfPath string, number int) (string, float64, bool) {
	if in.ocr == nil {
		in.log.Warn("OCR not configured, page kept without fallback", "page", number)
		return "", 0, false
	}

	outDir, err := os.MkdirTemp("", "blueprint_ocr_*")
	if err != nil {
		in.log.Warn("OCR temp dir failed", "page", number, "error", err)
		return "", 0, false
	}
	defer os.RemoveAll(outDir)

	imgPath, err := in.pdf.RenderPage(ctx, pdfPath, outDir, number, localmedia.RenderOptions{DPI: in.RenderDPI})
	if err != nil {
		in.log.Warn("page render failed", "page", number, "error", err)
		return "", 0, false
	}
	img, err := os.ReadFile(imgPath)
	if err != nil {
		in.log.Warn("rendered page unreadable", "page", number, "error", err)
		return "", 0, false
	}

	result, err := in.ocr.OCRImageBytes(ctx, img, "image/png")
	if err != nil {
		in.log.Warn("OCR failed", "page", number, "error", err)
		return "", 0, false
	}
	if strings.TrimSpace(result.Text) == "" {
		return "", 0, false
	}
	return result.Text, result.Confidence, true
}
