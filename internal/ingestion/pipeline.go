package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/blueprint-backend/internal/chunker"
	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/pkg/ctxutil"
	"github.com/yungbote/blueprint-backend/internal/pkg/httpx"
	"github.com/yungbote/blueprint-backend/internal/platform/localmedia"
	"github.com/yungbote/blueprint-backend/internal/platform/localstore"
	"github.com/yungbote/blueprint-backend/internal/repos"
	"github.com/yungbote/blueprint-backend/internal/schedule"
	"github.com/yungbote/blueprint-backend/internal/types"
	"github.com/yungbote/blueprint-backend/internal/vector"
)

// Embedder is the slice of the LLM client the pipeline needs.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Deps wires the pipeline's collaborators.
type Deps struct {
	Documents repos.DocumentRepo
	Pages     repos.PageRepo
	Entries   repos.ScheduleEntryRepo
	Chunks    repos.TextChunkRepo
	Store     localstore.FileStore
	PDF       localmedia.PDFTools
	Ingestor  *Ingestor
	Embedder  Embedder
	Vectors   vector.Store
}

// Pipeline drives one document through
// validating → extracting → extracted → indexing → ready.
// Any hard failure lands in failed (terminal) with a reason; page- and
// row-level problems are absorbed into counters instead.
type Pipeline struct {
	log  *logger.Logger
	deps Deps

	CostTable   schedule.CostTable
	DefaultUnit schedule.Unit
	Limits      ValidationLimits
	Chunking    chunker.Chunker

	EmbedBatchSize int
	EmbedWorkers   int
	BatchRetryBase time.Duration
}

func NewPipeline(log *logger.Logger, deps Deps) *Pipeline {
	return &Pipeline{
		log:            log.With("service", "IngestionPipeline"),
		deps:           deps,
		CostTable:      schedule.DefaultCostTable(),
		DefaultUnit:    schedule.UnitMillimeters,
		Limits:         DefaultValidationLimits(),
		Chunking:       chunker.Chunker{Size: 500, Overlap: 50},
		EmbedBatchSize: 16,
		EmbedWorkers:   4,
		BatchRetryBase: time.Second,
	}
}

// Run processes one claimed document to a terminal state. It never returns an
// error to the caller; failures are recorded on the document row. Cancellation
// rolls back any vectors already written so a cancelled document can never
// become partially visible.
func (p *Pipeline) Run(ctx context.Context, doc *types.Document) {
	log := p.log.With("document_id", doc.ID.String())
	start := time.Now()

	err := p.run(ctx, doc)
	if err == nil {
		log.Info("document ingested", "pages", doc.PageCount, "duration", time.Since(start).String())
		return
	}

	reason := err.Error()
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		reason = "cancelled"
	}

	// The inbound ctx may already be dead; cleanup gets its own deadline.
	cleanupCtx, cancel := ctxutil.Detached(30 * time.Second)
	defer cancel()

	if p.deps.Vectors != nil {
		if delErr := p.deps.Vectors.DeleteNamespace(cleanupCtx, doc.ID.String()); delErr != nil {
			log.Error("vector rollback failed", "error", delErr)
		}
	}
	if updErr := p.deps.Documents.UpdateStatus(cleanupCtx, nil, doc.ID, types.DocumentStatusFailed, reason); updErr != nil {
		log.Error("failed-status update failed", "error", updErr)
	}
	log.Warn("document ingestion failed", "reason", reason)
}

func (p *Pipeline) run(ctx context.Context, doc *types.Document) error {
	pdfPath, pageCount, err := p.validate(ctx, doc)
	if err != nil {
		return err
	}
	doc.PageCount = pageCount

	pages, skippedPages, err := p.extract(ctx, doc, pdfPath, pageCount)
	if err != nil {
		return err
	}

	chunks, parsed, err := p.parseAndChunk(ctx, doc, pages)
	if err != nil {
		return err
	}

	if err := p.deps.Documents.UpdateCounters(ctx, nil, doc.ID, pageCount, skippedPages, parsed.UnparsedRows, parsed.UnknownCost); err != nil {
		return err
	}

	if err := p.index(ctx, doc, chunks); err != nil {
		return err
	}

	// The ready flip is the atomic visibility point: retrieval filters on it,
	// so no query observes a partially indexed document.
	return p.deps.Documents.UpdateStatus(ctx, nil, doc.ID, types.DocumentStatusReady, "")
}

func (p *Pipeline) validate(ctx context.Context, doc *types.Document) (string, int, error) {
	pdfPath, err := p.deps.Store.Path(doc.StorageKey)
	if err != nil {
		return "", 0, &ValidationError{Reason: fmt.Sprintf("stored upload missing: %v", err)}
	}

	pageCount, err := p.deps.PDF.CountPages(ctx, pdfPath)
	if err != nil {
		return "", 0, &ValidationError{Reason: fmt.Sprintf("unreadable PDF: %v", err)}
	}
	if err := ValidatePageCount(pageCount, p.Limits); err != nil {
		return "", 0, err
	}
	return pdfPath, pageCount, nil
}

func (p *Pipeline) extract(ctx context.Context, doc *types.Document, pdfPath string, pageCount int) ([]*types.Page, int, error) {
	if err := p.deps.Documents.UpdateStatus(ctx, nil, doc.ID, types.DocumentStatusExtracting, ""); err != nil {
		return nil, 0, err
	}

	pages, skipped, err := p.deps.Ingestor.ExtractPages(ctx, doc.ID, pdfPath, pageCount)
	if err != nil {
		return nil, 0, err
	}
	if _, err := p.deps.Pages.Create(ctx, nil, pages); err != nil {
		return nil, 0, err
	}
	return pages, skipped, nil
}

type parseTotals struct {
	UnparsedRows int
	UnknownCost  int
}

// parseAndChunk runs the schedule extractor per page (preserving page
// provenance for chunks), persists the entries, and chunks the narrative
// residual plus the serialized schedule rows.
func (p *Pipeline) parseAndChunk(ctx context.Context, doc *types.Document, pages []*types.Page) ([]*types.TextChunk, parseTotals, error) {
	var totals parseTotals
	var allEntries []*types.ScheduleEntry
	var segments []chunker.Segment

	schedulePageStart, schedulePageEnd := 0, 0
	var scheduleLines []string

	for _, page := range pages {
		res := schedule.Extract(page.Text, p.CostTable, p.DefaultUnit)
		totals.UnparsedRows += res.UnparsedRows
		totals.UnknownCost += res.UnknownCost

		for _, entry := range res.Entries {
			entry.DocumentID = doc.ID
			entry.ID = uuid.New()
			allEntries = append(allEntries, entry)
			scheduleLines = append(scheduleLines, schedule.SerializeEntry(entry))
			if schedulePageStart == 0 {
				schedulePageStart = page.Number
			}
			schedulePageEnd = page.Number
		}

		if strings.TrimSpace(res.Narrative) != "" {
			segments = append(segments, chunker.Segment{
				PageStart: page.Number,
				PageEnd:   page.Number,
				Kind:      chunker.KindNarrative,
				Text:      res.Narrative,
			})
		}
	}

	if len(scheduleLines) > 0 {
		segments = append(segments, chunker.Segment{
			PageStart: schedulePageStart,
			PageEnd:   schedulePageEnd,
			Kind:      chunker.KindSchedule,
			Text:      strings.Join(scheduleLines, "\n"),
		})
	}

	if len(allEntries) > 0 {
		if _, err := p.deps.Entries.Create(ctx, nil, allEntries); err != nil {
			return nil, totals, err
		}
	}
	if err := p.deps.Documents.UpdateStatus(ctx, nil, doc.ID, types.DocumentStatusExtracted, ""); err != nil {
		return nil, totals, err
	}

	chunks := make([]*types.TextChunk, 0)
	for _, ch := range p.Chunking.Split(segments) {
		chunks = append(chunks, &types.TextChunk{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			Index:      ch.Index,
			PageStart:  ch.PageStart,
			PageEnd:    ch.PageEnd,
			Kind:       ch.Kind,
			Text:       ch.Text,
			CharLen:    len([]rune(ch.Text)),
			Overlap:    ch.Overlap,
			Metadata:   datatypes.JSON([]byte(`{}`)),
		})
	}
	return chunks, totals, nil
}

// index embeds and upserts all chunks, batched, with batches running in
// parallel under a bounded errgroup. A failed batch retries as a batch first,
// then chunk by chunk, so one poison chunk cannot sink its batchmates.
func (p *Pipeline) index(ctx context.Context, doc *types.Document, chunks []*types.TextChunk) error {
	if err := p.deps.Documents.UpdateStatus(ctx, nil, doc.ID, types.DocumentStatusIndexing, ""); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	if _, err := p.deps.Chunks.Create(ctx, nil, chunks); err != nil {
		return err
	}

	batchSize := p.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = 16
	}
	workers := p.EmbedWorkers
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		g.Go(func() error {
			return p.indexBatch(gctx, doc, batch)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) indexBatch(ctx context.Context, doc *types.Document, batch []*types.TextChunk) error {
	base := p.BatchRetryBase
	if base <= 0 {
		base = time.Second
	}
	backoff := httpx.Backoff{Base: base, Max: 15 * time.Second, Retries: 2}
	var lastErr error
	for {
		lastErr = p.embedAndUpsert(ctx, doc, batch)
		if lastErr == nil {
			return nil
		}
		if !backoff.Next() {
			break
		}
		if err := httpx.Sleep(ctx, backoff.Delay(nil)); err != nil {
			return err
		}
	}

	p.log.Warn("batch indexing failed, retrying per chunk",
		"document_id", doc.ID.String(),
		"batch_size", len(batch),
		"error", lastErr,
	)
	for _, chunk := range batch {
		if err := p.embedAndUpsert(ctx, doc, []*types.TextChunk{chunk}); err != nil {
			return &IndexingError{DocumentID: doc.ID.String(), Cause: err}
		}
	}
	return nil
}

func (p *Pipeline) embedAndUpsert(ctx context.Context, doc *types.Document, batch []*types.TextChunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	embeddings, err := p.deps.Embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedding count mismatch: want=%d got=%d", len(batch), len(embeddings))
	}

	vectors := make([]vector.Vector, len(batch))
	for i, chunk := range batch {
		vectors[i] = vector.Vector{
			ID:     chunk.ID.String(),
			Values: embeddings[i],
			Metadata: map[string]any{
				"document_id": doc.ID.String(),
				"page_start":  chunk.PageStart,
				"page_end":    chunk.PageEnd,
				"kind":        chunk.Kind,
			},
		}
	}
	return p.deps.Vectors.Upsert(ctx, doc.ID.String(), vectors)
}
