package worker

import (
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/byronwade/Thorbis-sub043/internal/config"
	"github.com/byronwade/Thorbis-sub043/internal/repository"
	"github.com/byronwade/Thorbis-sub043/internal/service"
	"github.com/byronwade/Thorbis-sub043/internal/utils"
)

func RegisterHandlers(mux *asynq.ServeMux, db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) {
	log := utils.GetLogger()

	jobRepo := repository.NewImportJobRepository(db)
	recordRepo := repository.NewEntityRecordRepository(db)

	writer := service.NewBatchWriter(recordRepo, cfg.ImportBatchSize, log)
	orchestrator := service.NewImportOrchestrator(
		jobRepo,
		recordRepo,
		service.NewFieldMapper(),
		service.NewRecordValidator(),
		writer,
		nil, // the worker consumes the queue, it never enqueues
		redisClient,
		nil, // default abort policy from config
		cfg,
		log,
	)

	handler := NewImportTaskHandler(orchestrator, log)
	mux.HandleFunc(TypeImportProcess, handler.Handle)
}
