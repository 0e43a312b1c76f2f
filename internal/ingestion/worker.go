package ingestion

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/repos"
)

// Worker polls for uploaded documents and runs the pipeline on each claim.
// Claims use SELECT ... FOR UPDATE SKIP LOCKED, so multiple workers (or
// replicas) never process the same document twice. Documents are independent:
// up to Concurrency of them ingest in parallel, while stages within one
// document stay sequential inside the pipeline.
type Worker struct {
	log       *logger.Logger
	documents repos.DocumentRepo
	pipeline  *Pipeline

	Interval    time.Duration
	Concurrency int

	wg sync.WaitGroup
}

func NewWorker(log *logger.Logger, documents repos.DocumentRepo, pipeline *Pipeline) *Worker {
	return &Worker{
		log:         log.With("service", "IngestionWorker"),
		documents:   documents,
		pipeline:    pipeline,
		Interval:    2 * time.Second,
		Concurrency: 2,
	}
}

// Start runs the claim loop until ctx is cancelled, then waits for in-flight
// ingestions to finish their cleanup.
func (w *Worker) Start(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	slots := make(chan struct{}, concurrency)

	w.log.Info("ingestion worker started", "interval", interval.String(), "concurrency", concurrency)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			w.log.Info("ingestion worker stopped")
			return
		case <-ticker.C:
			w.drainQueue(ctx, slots)
		}
	}
}

// drainQueue claims documents until the queue is empty or all slots are busy.
func (w *Worker) drainQueue(ctx context.Context, slots chan struct{}) {
	for {
		select {
		case slots <- struct{}{}:
		default:
			return
		}

		doc, err := w.documents.ClaimNextUploaded(ctx)
		if err != nil {
			<-slots
			if ctx.Err() == nil {
				w.log.Error("claim failed", "error", err)
			}
			return
		}
		if doc == nil {
			<-slots
			return
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-slots }()
			w.pipeline.Run(ctx, doc)
		}()
	}
}
