package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/catalog-indexer/internal/cfg"
	v1Http "github.com/DRSN-tech/catalog-indexer/internal/delivery/v1/http"
	"github.com/DRSN-tech/catalog-indexer/internal/infrastructure/blob"
	"github.com/DRSN-tech/catalog-indexer/internal/infrastructure/catalog"
	"github.com/DRSN-tech/catalog-indexer/internal/infrastructure/embed"
	"github.com/DRSN-tech/catalog-indexer/internal/infrastructure/kafka"
	dynamoRepo "github.com/DRSN-tech/catalog-indexer/internal/repository/dynamo"
	s3Repo "github.com/DRSN-tech/catalog-indexer/internal/repository/minio"
	"github.com/DRSN-tech/catalog-indexer/internal/repository/pgdb"
	"github.com/DRSN-tech/catalog-indexer/internal/repository/redisvec"
	"github.com/DRSN-tech/catalog-indexer/internal/usecase"
	"github.com/DRSN-tech/catalog-indexer/pkg/clients"
	"github.com/DRSN-tech/catalog-indexer/pkg/closer"
	"github.com/DRSN-tech/catalog-indexer/pkg/e"
	"github.com/DRSN-tech/catalog-indexer/pkg/logger"
	"github.com/DRSN-tech/catalog-indexer/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// App связывает все компоненты пайплайна индексации: долгоживущие клиенты
// хранилищ создаются один раз на запуск и переиспользуются каждой записью.
type App struct {
	cfg          *config.Config
	logger       logger.Logger
	closer       *closer.Closer
	indexerUC    usecase.IndexerUC
	reader       *catalog.Reader
	outboxWorker *kafka.OutboxWorker
	httpSrv      *v1Http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	cl := closer.NewCloser()

	db, err := initPGDB(log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(_ context.Context) error {
		db.Close()
		return nil
	})

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(_ context.Context) error {
		return redisClient.Client.Close()
	})

	vectorRepo := redisvec.NewVectorRepo(redisClient.Client, cfg.Redis, log)
	indexCtx, indexCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer indexCancel()
	if err := vectorRepo.EnsureIndex(indexCtx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer minioCancel()
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)
	blobInfra := blob.NewBlobInfrastructure(imageRepo, cfg.Minio, log)

	dynamoClient := clients.NewDynamoClient(cfg.Dynamo)
	metadataRepo := dynamoRepo.NewMetadataRepo(dynamoClient, cfg.Dynamo)

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(_ context.Context) error {
		return producer.Close()
	})

	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool)
	checkpointRepo := pgdb.NewCheckpointRepo(db.Pool, outboxRepo)
	outboxWorker := kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)

	embedService := embed.NewEmbedService(cfg.Embed, log)

	indexerUC := usecase.NewIndexerUC(
		vectorRepo,
		metadataRepo,
		checkpointRepo,
		embedService,
		blobInfra,
		log,
		cfg.Ingest,
	)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(indexerUC)
	httpSrv := v1Http.NewServer(r, cfg.Http)

	return &App{
		cfg:          cfg,
		logger:       log,
		closer:       cl,
		indexerUC:    indexerUC,
		reader:       catalog.NewReader(cfg.Ingest, log),
		outboxWorker: outboxWorker,
		httpSrv:      httpSrv,
	}, nil
}

// Run запускает outbox-воркер и административный HTTP API, прогоняет каталог
// через пайплайн и живет до сигнала завершения или фатальной ошибки сервера.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.outboxWorker.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	runDone := make(chan error, 1)
	go func() {
		runDone <- a.runPipeline(ctx)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	case err := <-runDone:
		if err != nil {
			a.logger.Errorf(err, "catalog run failed")
			appErr = err
		}
		// Пайплайн завершён; админ-API продолжает работать до сигнала
		select {
		case appErr = <-errCh:
			a.logger.Errorf(appErr, "HTTP server fatal error")
		case <-shutdown:
			a.logger.Infof("Received shutdown signal, stopping gracefully...")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	cancel()
	a.outboxWorker.Stop()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("resource cleanup error: %v", err)
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

// runPipeline читает каталог и индексирует его записи.
func (a *App) runPipeline(ctx context.Context) error {
	records, err := a.reader.ReadAll(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	summary, err := a.indexerUC.IndexCatalog(ctx, usecase.NewIndexCatalogReq(records))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	a.logger.Infof("pipeline run complete: indexed=%d skipped=%d failed=%d",
		summary.Indexed, summary.Skipped, summary.Failed)
	return nil
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
