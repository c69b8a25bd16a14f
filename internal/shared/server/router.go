package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetdocs-backend/internal/agreements"
	"fleetdocs-backend/internal/batch"
	"fleetdocs-backend/internal/classify"
	"fleetdocs-backend/internal/documents"
	"fleetdocs-backend/internal/overview"
	"fleetdocs-backend/internal/queue"
	"fleetdocs-backend/internal/services/health"
	"fleetdocs-backend/internal/shared/config"
	"fleetdocs-backend/internal/shared/metrics"
	"fleetdocs-backend/internal/shared/server/middleware"
	"fleetdocs-backend/internal/shared/server/respond"
	"fleetdocs-backend/internal/shared/storage/db"
	"fleetdocs-backend/internal/shared/storage/object"
	localstore "fleetdocs-backend/internal/shared/storage/object/local"
	s3store "fleetdocs-backend/internal/shared/storage/object/s3"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	m := metrics.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		m.Middleware(),
	)

	// Dependencies
	ctx := context.Background()
	store := buildStore(ctx, cfg)
	sqlDB := buildDB(ctx, cfg)

	var docRepo documents.Repo
	var agrRepo agreements.Repo
	if sqlDB != nil {
		docRepo = &documents.PGRepo{DB: sqlDB}
		agrRepo = &agreements.PGRepo{DB: sqlDB}
	} else {
		docRepo = documents.NewMemoryRepo()
		agrRepo = agreements.NewMemoryRepo()
	}

	classifier, err := classify.NewClient(cfg.ClassifierURL, cfg.ClassifierAPIKey, cfg.DigitizeTimeout)
	if err != nil {
		log.Printf("classifier client unavailable, digitize disabled: %v", err)
	}

	var queueClient queue.Client
	if cfg.RefreshQueueURL != "" {
		sqsClient, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.RefreshQueueURL)
		if err != nil {
			log.Printf("refresh queue unavailable, continuing without it: %v", err)
		} else {
			queueClient = sqsClient
		}
	}

	docSvc := &documents.Service{Store: store, Repo: docRepo, Metrics: m}
	if classifier != nil {
		docSvc.Classifier = classifier
	}

	var digitizeRate *middleware.RateLimiter
	if cfg.DigitizeRatePerMinute > 0 {
		digitizeRate = middleware.NewRateLimiter(cfg.DigitizeRatePerMinute, nil)
	}

	docHandler := documents.NewHandler(docSvc, digitizeRate)
	agrHandler := agreements.NewHandler(agrRepo)
	overviewHandler := overview.NewHandler(docSvc, agrRepo)
	batchHandler := batch.NewHandler(batch.NewStore(cfg.SessionTTL), docSvc, docSvc, queueClient, m)
	healthSvc := health.NewService()

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})
	overviewHandler.RegisterRoutes(api) // before docHandler so /documents/overview wins over /documents/:id
	docHandler.RegisterRoutes(api)
	agrHandler.RegisterRoutes(api)
	batchHandler.RegisterRoutes(api)

	r.GET("/metrics", m.Handler())

	return r
}

func buildStore(ctx context.Context, cfg config.Config) object.ObjectStore {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			log.Printf("s3 store unavailable, falling back to local: %v", err)
			return localstore.New(cfg.LocalStoreDir)
		}
		return store
	default:
		return localstore.New(cfg.LocalStoreDir)
	}
}

func buildDB(ctx context.Context, cfg config.Config) *sql.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	conn, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		log.Printf("failed to connect database, falling back to memory: %v", err)
		return nil
	}
	if err := db.RunMigrations(ctx, conn); err != nil {
		log.Printf("failed to run migrations, falling back to memory: %v", err)
		return nil
	}
	return conn
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
