package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"resumeats/analyzer/internal/config"
	"resumeats/analyzer/internal/handlers"
	"resumeats/analyzer/internal/repositories"
	"resumeats/analyzer/internal/services"
	"resumeats/analyzer/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Log.FilePath, cfg.Server.Env == "production")
	defer log.Sync()
	log.Info("config loaded")

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	log.Info("database connected")

	analysisRepo := repositories.NewAnalysisRepository(db)

	aiClient, err := services.NewGeminiClient(cfg.Gemini.APIKey)
	if err != nil {
		log.Fatal("failed to initialize Gemini client", zap.Error(err))
	}
	log.Info("Gemini client initialized")

	indexFactory, err := buildIndexFactory(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize vector store", zap.Error(err))
	}

	extractor := services.NewPDFExtractor()
	chunker := services.NewTextChunker()
	indexer := services.NewEmbeddingIndexer(
		aiClient,
		indexFactory,
		cfg.Pipeline.EmbedConcurrency,
		cfg.Pipeline.EmbedFailPolicy,
		log,
	)
	retriever := services.NewRetriever(aiClient)
	validator := services.NewResponseValidator(cfg.Pipeline.ScorePolicy, log)

	pipeline := services.NewPipelineService(
		extractor,
		chunker,
		indexer,
		retriever,
		aiClient,
		validator,
		analysisRepo,
		cfg.Pipeline,
		cfg.Retry,
		log,
	)
	log.Info("pipeline initialized",
		zap.String("vector_store", cfg.Pipeline.VectorStore),
		zap.String("embed_fail_policy", cfg.Pipeline.EmbedFailPolicy),
		zap.String("score_policy", cfg.Pipeline.ScorePolicy),
	)

	cleanup := services.NewCleanupScheduler(
		analysisRepo,
		cfg.Cleanup.Interval,
		cfg.Cleanup.Retention,
		log,
	)
	cleanup.Start()

	analyzeHandler := handlers.NewAnalyzeHandler(pipeline, cfg.Pipeline.MaxFileSize)
	resultHandler := handlers.NewResultHandler(analysisRepo)

	app := fiber.New(fiber.Config{
		AppName:      "Resume ATS Analyzer API",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		BodyLimit:    int(cfg.Pipeline.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/analyze", analyzeHandler.HandleAnalyze)
	api.Post("/compare", analyzeHandler.HandleCompare)
	api.Post("/rewrite", analyzeHandler.HandleRewrite)
	api.Post("/convert", analyzeHandler.HandleConvert)
	api.Get("/result/:id", resultHandler.HandleGetResult)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume ATS Analyzer API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/analyze",
				"POST /api/v1/compare",
				"POST /api/v1/rewrite",
				"POST /api/v1/convert",
				"GET /api/v1/result/:id",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		cleanup.Stop()
		if err := app.Shutdown(); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

// buildIndexFactory selects the per-request in-memory index or the
// qdrant-backed one, per configuration.
func buildIndexFactory(cfg *config.Config, log *zap.Logger) (services.IndexFactory, error) {
	if cfg.Pipeline.VectorStore != config.VectorStoreQdrant {
		return services.NewMemoryIndexFactory(), nil
	}

	factory, err := services.NewQdrantIndexFactory(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
	)
	if err != nil {
		return nil, err
	}

	log.Info("qdrant vector store selected", zap.String("collection", cfg.Qdrant.Collection))
	return factory, nil
}
