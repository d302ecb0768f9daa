package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PedrooFerraz/Inventory-app-sub000/config"
	"github.com/PedrooFerraz/Inventory-app-sub000/middlewares"
	"github.com/PedrooFerraz/Inventory-app-sub000/models"
	"github.com/PedrooFerraz/Inventory-app-sub000/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// server holds the dependencies shared by the HTTP handlers.
type server struct {
	db        *gorm.DB
	inventory *models.InventoryService
	importer  *models.InventoryImporter
	uploads   utils.UploadStore
	logger    *logrus.Logger
}

func newRouter(s *server, cfg config.Config, rdb *redis.Client) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())

	corsConfig := cors.DefaultConfig()
	// In production only the configured origins are allowed; none when unset.
	if cfg.IsProduction() {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOrigins = []string{}
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", middlewares.HeaderOperatorCode, middlewares.HeaderCorrelationId)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.HeaderCorrelationId)
	r.Use(cors.New(corsConfig))

	if cfg.RateLimit.Enabled && rdb != nil {
		r.Use(middlewares.NewRateLimiter(rdb, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window).Middleware())
	}

	r.Use(middlewares.OperatorMiddleware())
	r.Use(middlewares.CustomErrorLogger(s.logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	inv := r.Group("/inventories")
	inv.GET("", s.listInventoriesHandler)
	inv.POST("/import", s.uploadImportHandler)
	inv.POST("/import/uri", s.importFromURIHandler)
	inv.GET("/:id", s.getInventoryHandler)
	inv.DELETE("/:id", s.deleteInventoryHandler)
	inv.GET("/:id/progress", s.progressHandler)
	inv.POST("/:id/finalize", s.finalizeHandler)
	inv.GET("/:id/export", s.exportHandler)

	inv.GET("/:id/items", s.listItemsHandler)
	inv.POST("/:id/items", s.addNewItemHandler)
	inv.GET("/:id/items/resolve", s.resolveItemHandler)
	inv.GET("/:id/items/batches", s.batchesHandler)
	inv.POST("/:id/items/sum", s.sumToPreviousHandler)
	inv.PUT("/:id/items/:itemId/count", s.updateItemHandler)
	inv.PUT("/:id/items/:itemId/replace", s.replaceItemHandler)

	ops := r.Group("/operators")
	ops.GET("", s.listOperatorsHandler)
	ops.POST("", s.createOperatorHandler)
	ops.PUT("/:id", s.updateOperatorHandler)
	ops.DELETE("/:id", s.deleteOperatorHandler)

	r.NoRoute(customNotFoundHandler)
	return r
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	cfg := config.Load()
	config.SetLogLevel(cfg.LogLevel)
	logger := config.GetLogger()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	db, err := config.ConnectDatabaseWithRetry(sigCtx, cfg.Database, logger)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "database"}).Fatal(err.Error())
	}
	defer func() { _ = config.CloseDatabase(db) }()

	// AutoMigrate can lock tables on a busy MySQL; run it as a separate job there.
	if !cfg.SkipMigrations {
		if err := models.MigrateTable(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	var (
		rdb    *redis.Client
		locker utils.Locker = utils.NewLocalLocker()
	)
	if cfg.RedisAddress != "" {
		redisCtx, cancel := context.WithTimeout(sigCtx, time.Minute)
		client, lockClient, err := config.ConnectRedisWithRetry(redisCtx, cfg.RedisAddress, logger)
		cancel()
		if err != nil {
			logger.WithFields(logrus.Fields{"field": "redis"}).Warn("redis unavailable; using in-process import lock: " + err.Error())
		} else {
			rdb = client
			locker = utils.NewRedisLocker(lockClient)
			defer rdb.Close()
		}
	}

	var events config.EventPublisher = config.NoopPublisher{}
	if cfg.PubSubProjectID != "" {
		publisher, err := config.NewPubSubPublisher(sigCtx, cfg.PubSubProjectID, cfg.PubSubTopic, cfg.PubSubCredJSON)
		if err != nil {
			logger.WithFields(logrus.Fields{"field": "pubsub"}).Warn("events disabled: " + err.Error())
		} else {
			events = publisher
			defer publisher.Close()
		}
	}

	files := &utils.FileSources{}
	var uploads utils.UploadStore = utils.LocalUploadStore{Dir: cfg.UploadDir}
	if cfg.GCSBucket != "" {
		client, err := config.NewStorageClient(sigCtx, cfg.GCSCredentialsJSON)
		if err != nil {
			logger.WithFields(logrus.Fields{"field": "storage"}).Warn("gcs disabled: " + err.Error())
		} else {
			defer client.Close()
			files.GCS = utils.NewGCSFileSource(client)
			uploads = utils.NewGCSUploadStore(client, cfg.GCSBucket)
		}
	}
	if cfg.SFTP.Password != "" || cfg.SFTP.KeyFile != "" {
		files.SFTP = utils.NewSFTPFileSource(cfg.SFTP.Password, cfg.SFTP.KeyFile, cfg.SFTP.KnownHostsFile, cfg.SFTP.Timeout)
	}

	s := &server{
		db:        db,
		inventory: models.NewInventoryService(db, events, logger),
		importer:  models.NewInventoryImporter(db, files, locker, events, logger),
		uploads:   uploads,
		logger:    logger,
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(s, cfg, rdb),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()
	logger.WithFields(logrus.Fields{"port": cfg.Port, "driver": cfg.Database.Driver}).Info("server started")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}
