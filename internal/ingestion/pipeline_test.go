package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/blueprint-backend/internal/clients/gcp"
	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/platform/localmedia"
	"github.com/yungbote/blueprint-backend/internal/types"
	"github.com/yungbote/blueprint-backend/internal/vector"
)

// ---- fakes ----

type fakeDocRepo struct {
	mu       sync.Mutex
	statuses []string
	failure  string
	counters [4]int
}

func (f *fakeDocRepo) Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error) {
	return doc, nil
}

func (f *fakeDocRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Document, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDocRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status, failureReason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	f.failure = failureReason
	return nil
}

func (f *fakeDocRepo) UpdateCounters(ctx context.Context, tx *gorm.DB, id uuid.UUID, pageCount, skippedPages, unparsedRows, unknownCost int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = [4]int{pageCount, skippedPages, unparsedRows, unknownCost}
	return nil
}

func (f *fakeDocRepo) ClaimNextUploaded(ctx context.Context) (*types.Document, error) {
	return nil, nil
}

func (f *fakeDocRepo) lastStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return ""
	}
	return f.statuses[len(f.statuses)-1]
}

type fakePageRepo struct {
	mu    sync.Mutex
	pages []*types.Page
}

func (f *fakePageRepo) Create(ctx context.Context, tx *gorm.DB, pages []*types.Page) ([]*types.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, pages...)
	return pages, nil
}

func (f *fakePageRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.Page, error) {
	return f.pages, nil
}

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries []*types.ScheduleEntry
}

func (f *fakeEntryRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.ScheduleEntry) ([]*types.ScheduleEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
	return entries, nil
}

func (f *fakeEntryRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.ScheduleEntry, error) {
	return f.entries, nil
}

type fakeChunkRepo struct {
	mu     sync.Mutex
	chunks []*types.TextChunk
}

func (f *fakeChunkRepo) Create(ctx context.Context, tx *gorm.DB, chunks []*types.TextChunk) ([]*types.TextChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, chunks...)
	return chunks, nil
}

func (f *fakeChunkRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.TextChunk, error) {
	return f.chunks, nil
}

func (f *fakeChunkRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TextChunk, error) {
	return f.chunks, nil
}

type fakeStore struct {
	paths map[string]string
}

func (f *fakeStore) Save(data []byte, suffix string) (string, error) { return "", nil }
func (f *fakeStore) Path(key string) (string, error) {
	p, ok := f.paths[key]
	if !ok {
		return "", fmt.Errorf("no such key %q", key)
	}
	return p, nil
}
func (f *fakeStore) Read(key string) ([]byte, error) { return nil, nil }
func (f *fakeStore) Delete(key string) error         { return nil }

type fakePDFTools struct {
	pageCount int
	pageText  map[int]string
}

func (f *fakePDFTools) AssertReady(ctx context.Context) error { return nil }

func (f *fakePDFTools) WriteTempFile(ctx context.Context, data []byte, suffix string) (string, func(), error) {
	return "", func() {}, nil
}

func (f *fakePDFTools) CountPages(ctx context.Context, pdfPath string) (int, error) {
	return f.pageCount, nil
}

func (f *fakePDFTools) ExtractPageText(ctx context.Context, pdfPath string, page int) (string, error) {
	return f.pageText[page], nil
}

func (f *fakePDFTools) RenderPage(ctx context.Context, pdfPath string, outDir string, page int, opts localmedia.RenderOptions) (string, error) {
	path := filepath.Join(outDir, fmt.Sprintf("page_%04d.png", page))
	if err := os.WriteFile(path, []byte("fake png"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeVision struct {
	text       string
	confidence float64
}

func (f *fakeVision) OCRImageBytes(ctx context.Context, img []byte, mimeType string) (*gcp.OCRResult, error) {
	return &gcp.OCRResult{Provider: "fake", MimeType: mimeType, Text: f.text, Confidence: f.confidence}, nil
}

func (f *fakeVision) Close() error { return nil }

type fakeEmbedder struct {
	mu        sync.Mutex
	calls     int
	failBatch bool // fail any call with more than one input
	failText  string
}

func (f *fakeEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.failBatch && len(inputs) > 1 {
		return nil, errors.New("batch too large for fake provider")
	}
	out := make([][]float32, len(inputs))
	for i, text := range inputs {
		if f.failText != "" && strings.Contains(text, f.failText) {
			return nil, errors.New("poison chunk")
		}
		out[i] = []float32{float32(len(text)), 1, 0}
	}
	return out, nil
}

type fakeVectorStore struct {
	mu         sync.Mutex
	upserts    map[string][]vector.Vector
	deletedNS  []string
	failUpsert bool
}

func (f *fakeVectorStore) Upsert(ctx context.Context, namespace string, vectors []vector.Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsert {
		return errors.New("index unavailable")
	}
	if f.upserts == nil {
		f.upserts = make(map[string][]vector.Vector)
	}
	f.upserts[namespace] = append(f.upserts[namespace], vectors...)
	return nil
}

func (f *fakeVectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int) ([]vector.VectorMatch, error) {
	return nil, nil
}

func (f *fakeVectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedNS = append(f.deletedNS, namespace)
	return nil
}

// ---- helpers ----

type pipelineFixture struct {
	pipeline *Pipeline
	doc      *types.Document
	docs     *fakeDocRepo
	pages    *fakePageRepo
	entries  *fakeEntryRepo
	chunks   *fakeChunkRepo
	embedder *fakeEmbedder
	vectors  *fakeVectorStore
}

func newPipelineFixture(t *testing.T, pdf *fakePDFTools, ocr gcp.Vision) *pipelineFixture {
	t.Helper()
	log := logger.NewNop()

	f := &pipelineFixture{
		docs:     &fakeDocRepo{},
		pages:    &fakePageRepo{},
		entries:  &fakeEntryRepo{},
		chunks:   &fakeChunkRepo{},
		embedder: &fakeEmbedder{},
		vectors:  &fakeVectorStore{},
	}
	f.doc = &types.Document{
		ID:         uuid.New(),
		Filename:   "plan.pdf",
		StorageKey: "upload-1.pdf",
		Status:     types.DocumentStatusValidating,
	}

	f.pipeline = NewPipeline(log, Deps{
		Documents: f.docs,
		Pages:     f.pages,
		Entries:   f.entries,
		Chunks:    f.chunks,
		Store:     &fakeStore{paths: map[string]string{"upload-1.pdf": "/tmp/upload-1.pdf"}},
		PDF:       pdf,
		Ingestor:  NewIngestor(log, pdf, ocr),
		Embedder:  f.embedder,
		Vectors:   f.vectors,
	})
	f.pipeline.BatchRetryBase = time.Millisecond
	return f
}

// ---- tests ----

func TestPipelineRunTwoPageDocument(t *testing.T) {
	pdf := &fakePDFTools{
		pageCount: 2,
		pageText: map[int]string{
			1: "General notes about the ground floor plan and finishes. Door schedule: D-01 900x2100mm Timber qty 2",
			2: "", // scanned page, OCR fallback
		},
	}
	ocr := &fakeVision{text: "Window schedule W-01 600x1200mm Aluminium qty 1", confidence: 0.93}
	f := newPipelineFixture(t, pdf, ocr)

	if err := f.pipeline.run(context.Background(), f.doc); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := f.docs.lastStatus(); got != types.DocumentStatusReady {
		t.Fatalf("final status: want=ready got=%s", got)
	}
	wantOrder := []string{
		types.DocumentStatusExtracting,
		types.DocumentStatusExtracted,
		types.DocumentStatusIndexing,
		types.DocumentStatusReady,
	}
	if len(f.docs.statuses) != len(wantOrder) {
		t.Fatalf("status transitions: want=%v got=%v", wantOrder, f.docs.statuses)
	}
	for i, want := range wantOrder {
		if f.docs.statuses[i] != want {
			t.Errorf("transition %d: want=%s got=%s", i, want, f.docs.statuses[i])
		}
	}

	if len(f.pages.pages) != 2 {
		t.Fatalf("pages: want=2 got=%d", len(f.pages.pages))
	}
	if f.pages.pages[0].Method != types.PageMethodNative {
		t.Errorf("page 1 method: want=native got=%s", f.pages.pages[0].Method)
	}
	if f.pages.pages[1].Method != types.PageMethodOCR {
		t.Errorf("page 2 method: want=ocr got=%s", f.pages.pages[1].Method)
	}
	if f.pages.pages[1].Confidence != 0.93 {
		t.Errorf("page 2 confidence: want=0.93 got=%g", f.pages.pages[1].Confidence)
	}

	if len(f.entries.entries) != 2 {
		t.Fatalf("schedule entries: want=2 got=%d", len(f.entries.entries))
	}
	d01 := f.entries.entries[0]
	if d01.Label != "D-01" || d01.AreaSqm != 1.89 || d01.Quantity != 2 {
		t.Errorf("D-01 entry wrong: %+v", d01)
	}

	if len(f.chunks.chunks) == 0 {
		t.Fatal("no chunks persisted")
	}
	ns := f.doc.ID.String()
	if len(f.vectors.upserts[ns]) != len(f.chunks.chunks) {
		t.Errorf("vectors: want=%d got=%d", len(f.chunks.chunks), len(f.vectors.upserts[ns]))
	}

	if f.docs.counters[0] != 2 {
		t.Errorf("page count counter: want=2 got=%d", f.docs.counters[0])
	}
}

func TestPipelineRunValidationFailureIsTerminal(t *testing.T) {
	pdf := &fakePDFTools{pageCount: 500, pageText: map[int]string{}}
	f := newPipelineFixture(t, pdf, nil)

	f.pipeline.Run(context.Background(), f.doc)

	if got := f.docs.lastStatus(); got != types.DocumentStatusFailed {
		t.Fatalf("final status: want=failed got=%s", got)
	}
	if !strings.Contains(f.docs.failure, "too many pages") {
		t.Errorf("failure reason: got=%q", f.docs.failure)
	}
	if len(f.pages.pages) != 0 {
		t.Errorf("no pages should persist after validation failure, got=%d", len(f.pages.pages))
	}
}

func TestPipelinePerChunkFallbackIsolatesBatchFailure(t *testing.T) {
	longText := strings.Repeat("Narrative prose about corridors and stairwells. ", 60)
	pdf := &fakePDFTools{
		pageCount: 1,
		pageText:  map[int]string{1: longText},
	}
	f := newPipelineFixture(t, pdf, nil)
	f.embedder.failBatch = true
	f.pipeline.EmbedBatchSize = 4
	f.pipeline.EmbedWorkers = 1

	if err := f.pipeline.run(context.Background(), f.doc); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := f.docs.lastStatus(); got != types.DocumentStatusReady {
		t.Fatalf("final status: want=ready got=%s", got)
	}
	ns := f.doc.ID.String()
	if len(f.vectors.upserts[ns]) != len(f.chunks.chunks) {
		t.Errorf("per-chunk fallback incomplete: vectors=%d chunks=%d", len(f.vectors.upserts[ns]), len(f.chunks.chunks))
	}
}

func TestPipelinePoisonChunkFailsDocumentAndRollsBack(t *testing.T) {
	pdf := &fakePDFTools{
		pageCount: 1,
		pageText:  map[int]string{1: "Some prose.\n\nPOISON paragraph that cannot embed. More text follows here."},
	}
	f := newPipelineFixture(t, pdf, nil)
	f.embedder.failText = "POISON"

	f.pipeline.Run(context.Background(), f.doc)

	if got := f.docs.lastStatus(); got != types.DocumentStatusFailed {
		t.Fatalf("final status: want=failed got=%s", got)
	}
	ns := f.doc.ID.String()
	found := false
	for _, deleted := range f.vectors.deletedNS {
		if deleted == ns {
			found = true
		}
	}
	if !found {
		t.Error("failed document's namespace was not rolled back")
	}
}

func TestPipelineCancellationMarksCancelled(t *testing.T) {
	pdf := &fakePDFTools{
		pageCount: 1,
		pageText:  map[int]string{1: "Prose for a single page document that will be cancelled."},
	}
	f := newPipelineFixture(t, pdf, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.pipeline.Run(ctx, f.doc)

	if got := f.docs.lastStatus(); got != types.DocumentStatusFailed {
		t.Fatalf("final status: want=failed got=%s", got)
	}
	if f.docs.failure != "cancelled" {
		t.Errorf("failure reason: want=cancelled got=%q", f.docs.failure)
	}
}
