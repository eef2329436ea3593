package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cartpilot/cartpilot/config"
	"github.com/cartpilot/cartpilot/internal/api/handlers"
	"github.com/cartpilot/cartpilot/internal/api/middleware"
	"github.com/cartpilot/cartpilot/internal/api/routes"
	"github.com/cartpilot/cartpilot/internal/cache"
	"github.com/cartpilot/cartpilot/internal/events"
	"github.com/cartpilot/cartpilot/internal/logger"
	"github.com/cartpilot/cartpilot/internal/models"
	"github.com/cartpilot/cartpilot/internal/providers/llm"
	mongorepo "github.com/cartpilot/cartpilot/internal/repositories/mongo"
	pgrepo "github.com/cartpilot/cartpilot/internal/repositories/postgres"
	"github.com/cartpilot/cartpilot/internal/services"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init failed")
	}
	log.Info("MongoDB connected")

	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("MongoDB index setup failed")
	}

	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("PostgreSQL init failed")
	}
	log.Info("PostgreSQL connected")

	if err := config.PostgresDB.AutoMigrate(&models.AuditRecord{}); err != nil {
		log.WithError(err).Fatal("PostgreSQL migration failed")
	}

	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("Redis init failed")
	}
	log.Info("Redis connected")

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "cartpilot"
	}
	db := config.MongoClient.Database(dbName)

	memoryRepo := mongorepo.NewMemoryRepo(db)
	cartRepo := mongorepo.NewCartRepo(db)
	productRepo := mongorepo.NewProductRepo(db)
	promotionRepo := mongorepo.NewPromotionRepo(db)
	orderRepo := mongorepo.NewOrderRepo(db)
	auditRepo := pgrepo.NewAuditRepo(config.PostgresDB)

	sink := events.NewRedisSink(config.RedisClient, log)
	summaryCache := cache.NewRedisCache(config.RedisClient, "cartpilot:")

	llmCfg := llm.ConfigFromEnv()
	provider := llm.NewOpenAIClient(llmCfg, log)
	defer provider.Close()

	catalogSvc := services.NewCatalogService(productRepo, summaryCache)
	memorySvc := services.NewMemoryService(memoryRepo, catalogSvc)
	cartSvc := services.NewCartService(cartRepo, productRepo, promotionRepo, orderRepo, sink, log)
	assistantSvc := services.NewAssistantService(memorySvc, cartSvc, provider, llmCfg, sink, log)
	orchestrationSvc := services.NewOrchestrationService(
		assistantSvc, cartSvc, catalogSvc,
		productRepo, promotionRepo, auditRepo,
		sink, llmCfg.Model, log,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Assistant: handlers.NewAssistantHandler(orchestrationSvc, cartSvc, auditRepo),
		WS:        handlers.NewWSHandler(config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("server starting")
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
