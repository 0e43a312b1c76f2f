package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/pkg/ctxutil"
)

// Vision is the OCR engine interface consumed by the PDF ingestor. The only
// call shape the ingestor needs is image-bytes-in, text-plus-confidence-out;
// page rasterization happens upstream.
type Vision interface {
	OCRImageBytes(ctx context.Context, img []byte, mimeType string) (*OCRResult, error)
	Close() error
}

type OCRResult struct {
	Provider   string  `json:"provider"`
	MimeType   string  `json:"mime_type,omitempty"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type visionService struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient
}

func NewVision(log *logger.Logger) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Vision")

	ctx := context.Background()
	client, err := vision.NewImageAnnotatorClient(ctx, ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &visionService{log: slog, client: client}, nil
}

func (s *visionService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *visionService) OCRImageBytes(ctx context.Context, img []byte, mimeType string) (*OCRResult, error) {
	if len(img) == 0 {
		return &OCRResult{Provider: "gcp_vision", MimeType: mimeType}, nil
	}

	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: img},
			Features: []*visionpb.Feature{
				{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
			},
		}},
	}
	resp, err := s.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return &OCRResult{Provider: "gcp_vision", MimeType: mimeType}, nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}

	fta := r0.FullTextAnnotation
	if fta == nil || strings.TrimSpace(fta.Text) == "" {
		return &OCRResult{Provider: "gcp_vision", MimeType: mimeType}, nil
	}

	conf := 0.0
	blocks := 0
	for _, pg := range fta.Pages {
		if pg == nil {
			continue
		}
		for _, b := range pg.Blocks {
			if b == nil {
				continue
			}
			conf += float64(b.Confidence)
			blocks++
		}
	}
	if blocks > 0 {
		conf /= float64(blocks)
	}

	return &OCRResult{
		Provider:   "gcp_vision",
		MimeType:   mimeType,
		Text:       collapseWhitespace(fta.Text),
		Confidence: conf,
	}, nil
}
