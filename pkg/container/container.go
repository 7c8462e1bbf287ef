package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"wiwihood-backend/internal/config"
	infraCache "wiwihood-backend/internal/infrastructure/cache"
	"wiwihood-backend/internal/infrastructure/database"
	"wiwihood-backend/pkg/cache"
	"wiwihood-backend/pkg/jwt"

	loyaltyHandler "wiwihood-backend/internal/domains/loyalty/handler"
	loyaltyRepo "wiwihood-backend/internal/domains/loyalty/repository"
	loyaltyService "wiwihood-backend/internal/domains/loyalty/service"
	promotionHandler "wiwihood-backend/internal/domains/promotion/handler"
	promotionRepo "wiwihood-backend/internal/domains/promotion/repository"
	promotionService "wiwihood-backend/internal/domains/promotion/service"
	providerRepo "wiwihood-backend/internal/domains/provider/repository"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph. Everything in it is
// a singleton living for the whole process.
type Container struct {
	// Infrastructure
	Config     *config.Config
	DB         *database.PostgresDB
	Cache      cache.Cache
	JWTManager *jwt.Manager

	// Repositories
	ProviderRepo  providerRepo.ProviderRepository
	LoyaltyRepo   loyaltyRepo.LoyaltyRepository
	PromotionRepo promotionRepo.PromotionRepository

	// Services
	LoyaltyService   loyaltyService.LoyaltyService
	PromotionService promotionService.PromotionService

	// Handlers
	LoyaltyHandler        *loyaltyHandler.LoyaltyHandler
	PromotionHandler      *promotionHandler.PublicHandler
	PromotionAdminHandler *promotionHandler.AdminHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer initializes the graph in dependency order:
// config, infrastructure, repositories, services, handlers.
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	log.Println("📋 Loading configuration...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	log.Println("🗄️  Connecting to PostgreSQL...")

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Println("✅ Database connected")

	// ========================================
	// STEP 3: INITIALIZE CACHE
	// ========================================
	log.Println("🔴 Connecting to Redis...")

	redisCache := infraCache.NewRedisCache(
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)

	// Connect is not part of the cache interface, so assert the
	// concrete type. A Redis outage is not fatal: callers degrade
	// to the database when the cache errors.
	if rc, ok := redisCache.(*infraCache.RedisCache); ok {
		if err := rc.Connect(context.Background()); err != nil {
			log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
		} else {
			log.Println("✅ Redis connected")
		}
	}

	c.Cache = redisCache
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)

	// ========================================
	// STEP 4: INITIALIZE REPOSITORIES
	// ========================================
	log.Println("📦 Initializing repositories...")
	c.initRepositories()
	log.Println("✅ Repositories initialized")

	// ========================================
	// STEP 5: INITIALIZE SERVICES
	// ========================================
	log.Println("⚙️  Initializing services...")
	c.initServices()
	log.Println("✅ Services initialized")

	// ========================================
	// STEP 6: INITIALIZE HANDLERS
	// ========================================
	log.Println("🎯 Initializing handlers...")
	c.initHandlers()
	log.Println("✅ Handlers initialized")

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.ProviderRepo = providerRepo.NewPostgresRepository(pool)
	c.LoyaltyRepo = loyaltyRepo.NewPostgresLoyaltyRepository(pool)
	c.PromotionRepo = promotionRepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	c.LoyaltyService = loyaltyService.NewLoyaltyService(c.LoyaltyRepo, c.Cache)
	c.PromotionService = promotionService.NewPromotionService(c.PromotionRepo, c.ProviderRepo)
}

func (c *Container) initHandlers() {
	c.LoyaltyHandler = loyaltyHandler.NewLoyaltyHandler(c.LoyaltyService)
	c.PromotionHandler = promotionHandler.NewPublicHandler(c.PromotionService)
	c.PromotionAdminHandler = promotionHandler.NewAdminHandler(c.PromotionService)
}

// ========================================
// CLEANUP
// ========================================

// Cleanup releases connections. Called from graceful shutdown.
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.DB != nil && c.DB.Pool != nil {
		c.DB.Pool.Close()
		log.Println("✅ Database connections closed")
	}

	if c.Cache != nil {
		if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
			if err := rc.Close(); err != nil {
				log.Printf("⚠️  Failed to close Redis: %v", err)
			} else {
				log.Println("✅ Redis connections closed")
			}
		}
	}

	log.Println("✅ Container cleanup completed")
}
