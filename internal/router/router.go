package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/byronwade/Thorbis-sub043/internal/config"
	"github.com/byronwade/Thorbis-sub043/internal/handler"
	"github.com/byronwade/Thorbis-sub043/internal/middleware"
	"github.com/byronwade/Thorbis-sub043/internal/repository"
	"github.com/byronwade/Thorbis-sub043/internal/service"
	"github.com/byronwade/Thorbis-sub043/internal/utils"
	"github.com/byronwade/Thorbis-sub043/internal/worker"
)

func Setup(app *fiber.App, db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) {
	log := utils.GetLogger()

	// Repositories
	jobRepo := repository.NewImportJobRepository(db)
	recordRepo := repository.NewEntityRecordRepository(db)
	mappingRepo := repository.NewMappingRepository(db)

	// Queue client (optional - only if Redis is available)
	var queue service.ImportQueue
	if redisClient != nil {
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		})
		queue = worker.NewEnqueuer(client)
	}

	// Services
	writer := service.NewBatchWriter(recordRepo, cfg.ImportBatchSize, log)
	orchestrator := service.NewImportOrchestrator(
		jobRepo,
		recordRepo,
		service.NewFieldMapper(),
		service.NewRecordValidator(),
		writer,
		queue,
		redisClient,
		nil,
		cfg,
		log,
	)
	spreadsheets := service.NewSpreadsheetService()

	// Handlers
	importHandler := handler.NewImportHandler(orchestrator, jobRepo, mappingRepo, spreadsheets, redisClient, cfg)
	mappingHandler := handler.NewMappingHandler(mappingRepo)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	imports := protected.Group("/imports")
	imports.Post("/", importHandler.SubmitImport)
	imports.Post("/parse", importHandler.ParseUpload)
	imports.Get("/", importHandler.GetImports)
	imports.Get("/:id", importHandler.GetImport)
	imports.Post("/:id/rollback", importHandler.RollbackImport)

	mappings := protected.Group("/mappings")
	mappings.Get("/", mappingHandler.GetMappings)
	mappings.Post("/", mappingHandler.CreateMapping)
	mappings.Delete("/:id", mappingHandler.DeleteMapping)
}
