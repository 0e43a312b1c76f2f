package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/blueprint-backend/internal/clients/gcp"
	"github.com/yungbote/blueprint-backend/internal/clients/openai"
	"github.com/yungbote/blueprint-backend/internal/db"
	"github.com/yungbote/blueprint-backend/internal/handlers"
	"github.com/yungbote/blueprint-backend/internal/ingestion"
	"github.com/yungbote/blueprint-backend/internal/logger"
	"github.com/yungbote/blueprint-backend/internal/platform/localmedia"
	"github.com/yungbote/blueprint-backend/internal/platform/localstore"
	"github.com/yungbote/blueprint-backend/internal/rag"
	"github.com/yungbote/blueprint-backend/internal/repos"
	"github.com/yungbote/blueprint-backend/internal/schedule"
	"github.com/yungbote/blueprint-backend/internal/server"
	"github.com/yungbote/blueprint-backend/internal/services"
	"github.com/yungbote/blueprint-backend/internal/utils"
	"github.com/yungbote/blueprint-backend/internal/vector"
	vecmemory "github.com/yungbote/blueprint-backend/internal/vector/memory"
	"github.com/yungbote/blueprint-backend/internal/vector/qdrant"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	port := utils.GetEnv("PORT", "8080", log)
	uploadDir := utils.GetEnv("UPLOAD_DIR", "", log)
	costTablePath := utils.GetEnv("COST_TABLE_PATH", "", log)
	vectorProvider := utils.GetEnv("VECTOR_PROVIDER", "qdrant", log)
	memoryProvider := utils.GetEnv("MEMORY_PROVIDER", "memory", log)
	historyTurns := utils.GetEnvAsInt("CONVERSATION_HISTORY_LIMIT", 4, log)
	minRelevance := utils.GetEnvAsFloat("MIN_RELEVANCE", 0.35, log)
	highRelevance := utils.GetEnvAsFloat("HIGH_RELEVANCE", 0.75, log)
	maxUploadMB := utils.GetEnvAsInt("MAX_UPLOAD_MB", 10, log)
	maxPages := utils.GetEnvAsInt("MAX_PDF_PAGES", 50, log)

	limits := ingestion.ValidationLimits{
		MaxSizeBytes: int64(maxUploadMB) << 20,
		MaxPages:     maxPages,
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	documentRepo := repos.NewDocumentRepo(thePG, log)
	pageRepo := repos.NewPageRepo(thePG, log)
	scheduleEntryRepo := repos.NewScheduleEntryRepo(thePG, log)
	textChunkRepo := repos.NewTextChunkRepo(thePG, log)

	// Clients
	log.Info("Setting up clients from main...")
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}
	var ocr gcp.Vision
	if vision, visionErr := gcp.NewVision(log); visionErr != nil {
		log.Warn("OCR disabled, scanned pages will be skipped", "error", visionErr)
	} else {
		ocr = vision
	}

	// Vector store
	var vectorStore vector.Store
	switch vectorProvider {
	case "memory":
		vectorDim := utils.GetEnvAsInt("VECTOR_DIM", 1536, log)
		vectorStore = vecmemory.NewStore(vectorDim)
	default:
		qdrantCfg, cfgErr := qdrant.ResolveConfigFromEnv()
		if cfgErr != nil {
			log.Error("Qdrant config invalid", "error", cfgErr)
			os.Exit(1)
		}
		vectorStore, err = qdrant.NewStore(log, qdrantCfg)
		if err != nil {
			log.Error("Could not init Qdrant store", "error", err)
			os.Exit(1)
		}
	}

	// Conversation memory
	var chatMemory rag.Memory
	if memoryProvider == "redis" {
		chatMemory, err = rag.NewRedisMemory(log, historyTurns)
		if err != nil {
			log.Error("Could not init Redis memory", "error", err)
			os.Exit(1)
		}
	} else {
		chatMemory = rag.NewInMemory(historyTurns)
	}

	// Storage + PDF tooling
	fileStore, err := localstore.New(log, uploadDir)
	if err != nil {
		log.Error("Could not init upload store", "error", err)
		os.Exit(1)
	}
	pdfTools := localmedia.New(log)

	// Cost table
	costTable := schedule.DefaultCostTable()
	if costTablePath != "" {
		costTable, err = schedule.LoadCostTable(costTablePath)
		if err != nil {
			log.Error("Could not load cost table", "path", costTablePath, "error", err)
			os.Exit(1)
		}
	}

	// Ingestion pipeline + worker
	log.Info("Setting up ingestion worker from main...")
	ingestor := ingestion.NewIngestor(log, pdfTools, ocr)
	pipeline := ingestion.NewPipeline(log, ingestion.Deps{
		Documents: documentRepo,
		Pages:     pageRepo,
		Entries:   scheduleEntryRepo,
		Chunks:    textChunkRepo,
		Store:     fileStore,
		PDF:       pdfTools,
		Ingestor:  ingestor,
		Embedder:  openaiClient,
		Vectors:   vectorStore,
	})
	pipeline.CostTable = costTable
	pipeline.Limits = limits

	workerCtx, stopWorker := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopWorker()
	worker := ingestion.NewWorker(log, documentRepo, pipeline)
	go worker.Start(workerCtx)

	// Services
	log.Info("Setting up Services from main...")
	documentService := services.NewDocumentService(thePG, log, documentRepo, fileStore, limits)
	scheduleService := services.NewScheduleService(thePG, log, documentRepo, scheduleEntryRepo)
	retriever := rag.NewRetriever(log, openaiClient, vectorStore, textChunkRepo, documentRepo)
	generator := rag.NewGenerator(log, openaiClient)
	generator.MinRelevance = minRelevance
	generator.HighRelevance = highRelevance
	searchService := services.NewSearchService(log, retriever)
	chatService := services.NewChatService(log, retriever, generator, chatMemory)

	// Handlers
	log.Info("Setting up handlers from main...")
	documentHandler := handlers.NewDocumentHandler(documentService, scheduleService, limits.MaxSizeBytes)
	queryHandler := handlers.NewQueryHandler(searchService, chatService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		DocumentHandler: documentHandler,
		QueryHandler:    queryHandler,
	})

	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
