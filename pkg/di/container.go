package di

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"taskflow/application/serviceimpl"
	"taskflow/domain/ports"
	"taskflow/domain/repositories"
	"taskflow/domain/services"
	"taskflow/infrastructure/mongodb"
	natspkg "taskflow/infrastructure/nats"
	"taskflow/infrastructure/postgres"
	redispkg "taskflow/infrastructure/redis"
	"taskflow/infrastructure/storage"
	"taskflow/infrastructure/websocket"
	"taskflow/interfaces/api/handlers"
	"taskflow/interfaces/api/middleware"
	"taskflow/interfaces/api/routes"
	"taskflow/pkg/config"
	"taskflow/pkg/logger"
	"taskflow/pkg/scheduler"
	"taskflow/pkg/utils"
)

const (
	reminderJobID   = "task-due-reminders"
	reminderLockKey = "lock:task-due-reminders"
	connectTimeout  = 10 * time.Second
)

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB          *gorm.DB       // DB_DRIVER=postgres
	MongoClient *mongo.Client  // DB_DRIVER=mongo
	MongoDB     *mongo.Database
	RedisClient *redispkg.Client // optional
	NATSClient  *natspkg.Client  // optional
	Storage     ports.StoragePort
	Scheduler   scheduler.JobScheduler

	// Realtime
	Hub            *websocket.Hub
	NATSSubscriber *natspkg.Subscriber
	EventPublisher ports.TaskEventPublisher

	Tokens      *utils.TokenManager
	AuthLimiter middleware.RateLimiter

	// Repositories
	UserRepository repositories.UserRepository
	TaskRepository repositories.TaskRepository

	// Services
	UserService     services.UserService
	TaskService     services.TaskService
	ReminderService services.ReminderService
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initLogger(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	c.initEvents()

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

func (c *Container) initLogger() error {
	logConfig := logger.Config{
		Service:    c.Config.App.Name,
		Level:      c.Config.Log.Level,
		Format:     c.Config.Log.Format,
		Output:     c.Config.Log.Output,
		FilePath:   c.Config.Log.FilePath,
		MaxSize:    c.Config.Log.MaxSize,
		MaxBackups: c.Config.Log.MaxBackups,
		MaxAge:     c.Config.Log.MaxAge,
		Compress:   c.Config.Log.Compress,
	}

	if err := logger.Init(logConfig); err != nil {
		return err
	}

	logger.Info("Logger initialized",
		"level", c.Config.Log.Level,
		"format", c.Config.Log.Format,
		"output", c.Config.Log.Output,
		"env", c.Config.App.Env,
	)
	return nil
}

func (c *Container) initInfrastructure() error {
	if err := c.initDatabase(); err != nil {
		return err
	}

	// Redis (optional) ไม่มีก็ใช้ limiter ใน memory และไม่มี lock ข้าม instance
	if c.Config.Redis.URL != "" {
		redisClient, err := redispkg.NewClient(&c.Config.Redis)
		if err != nil {
			logger.Warn("Redis client initialization failed (using in-memory rate limiter)", "error", err)
		} else {
			c.RedisClient = redisClient
			logger.Info("Redis client initialized")
		}
	}

	// NATS (optional) ไม่มีก็ส่ง event เข้า websocket hub ตรงๆ
	if c.Config.NATS.URL != "" {
		natsClient, err := natspkg.NewClient(natspkg.ClientConfig{
			URL:           c.Config.NATS.URL,
			SubjectPrefix: c.Config.NATS.SubjectPrefix,
		})
		if err != nil {
			logger.Warn("NATS client initialization failed (events stay local)", "error", err)
		} else {
			c.NATSClient = natsClient
			logger.Info("NATS client initialized", "url", c.Config.NATS.URL)
		}
	}

	if err := c.initStorage(); err != nil {
		return err
	}

	c.Tokens = utils.NewTokenManager(&c.Config.JWT)
	c.initRateLimiter()

	return nil
}

func (c *Container) initDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if c.Config.UsesMongo() {
		client, db, err := mongodb.NewDatabase(ctx, mongodb.DatabaseConfig{
			URI:      c.Config.Database.MongoURI,
			Database: c.Config.Database.MongoDB,
		})
		if err != nil {
			return err
		}
		c.MongoClient = client
		c.MongoDB = db

		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		logger.Info("MongoDB connected", "db", c.Config.Database.MongoDB)
		return nil
	}

	db, err := postgres.NewDatabase(postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
		LogSQL:   c.Config.IsDevelopment(),
	})
	if err != nil {
		return err
	}
	c.DB = db
	logger.Info("Database connected", "host", c.Config.Database.Host, "db", c.Config.Database.DBName)

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Info("Database migrated")
	return nil
}

// initStorage สร้าง storage adapter ตาม STORAGE_TYPE
func (c *Container) initStorage() error {
	switch c.Config.Storage.Type {
	case "s3":
		s3Storage, err := storage.NewS3Storage(storage.S3StorageConfig{
			Endpoint:  c.Config.Storage.S3.Endpoint,
			AccessKey: c.Config.Storage.S3.AccessKey,
			SecretKey: c.Config.Storage.S3.SecretKey,
			Bucket:    c.Config.Storage.S3.Bucket,
			UseSSL:    c.Config.Storage.S3.UseSSL,
			Region:    c.Config.Storage.S3.Region,
			PublicURL: c.Config.Storage.S3.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		c.Storage = s3Storage
		logger.Info("S3 Storage initialized",
			"endpoint", c.Config.Storage.S3.Endpoint,
			"bucket", c.Config.Storage.S3.Bucket,
		)

	default:
		localStorage, err := storage.NewLocalStorage(storage.LocalStorageConfig{
			BasePath: c.Config.Storage.BasePath,
			BaseURL:  c.Config.Storage.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize local storage: %w", err)
		}
		c.Storage = localStorage
		logger.Info("Local Storage initialized", "path", c.Config.Storage.BasePath)
	}

	return nil
}

func (c *Container) initRateLimiter() {
	if !c.Config.RateLimit.Enabled {
		logger.Info("Auth rate limiting disabled")
		return
	}

	if c.RedisClient != nil {
		c.AuthLimiter = redispkg.NewRateLimiter(c.RedisClient, "ratelimit:auth",
			c.Config.RateLimit.Requests, c.Config.RateLimit.Window)
		logger.Info("Auth rate limiter uses Redis", "requests", c.Config.RateLimit.Requests, "window", c.Config.RateLimit.Window.String())
		return
	}

	c.AuthLimiter = middleware.NewMemoryRateLimiter(c.Config.RateLimit.Requests, c.Config.RateLimit.Window)
	logger.Info("Auth rate limiter uses memory", "requests", c.Config.RateLimit.Requests, "window", c.Config.RateLimit.Window.String())
}

func (c *Container) initRepositories() error {
	if c.MongoDB != nil {
		c.UserRepository = mongodb.NewUserRepository(c.MongoDB)
		c.TaskRepository = mongodb.NewTaskRepository(c.MongoDB)
	} else {
		c.UserRepository = postgres.NewUserRepository(c.DB)
		c.TaskRepository = postgres.NewTaskRepository(c.DB)
	}

	logger.Info("Repositories initialized", "driver", c.Config.Database.Driver)
	return nil
}

// initEvents มี NATS: service -> NATS -> subscriber -> hub (ทุก instance ได้ event)
// ไม่มี NATS: service -> hub ตรงๆ
func (c *Container) initEvents() {
	c.Hub = websocket.NewHub()

	if c.NATSClient == nil {
		c.EventPublisher = c.Hub
		return
	}

	c.EventPublisher = natspkg.NewPublisher(c.NATSClient)
	c.NATSSubscriber = natspkg.NewSubscriber(c.NATSClient, c.Hub)
	if err := c.NATSSubscriber.Start(); err != nil {
		logger.Warn("NATS subscriber failed to start (websocket feed disabled)", "error", err)
		c.NATSSubscriber = nil
	}
}

func (c *Container) initServices() error {
	c.UserService = serviceimpl.NewUserService(
		c.UserRepository,
		c.Tokens,
		c.Storage,
		c.Config.Bcrypt.Cost,
		c.Config.Storage.MaxAvatarSize,
	)
	c.TaskService = serviceimpl.NewTaskService(c.TaskRepository, c.UserRepository, c.EventPublisher)
	c.ReminderService = serviceimpl.NewReminderService(
		c.TaskRepository,
		c.EventPublisher,
		c.Config.Reminder.Window,
		c.Config.Reminder.BatchSize,
	)

	logger.Info("Services initialized")
	return nil
}

func (c *Container) initScheduler() error {
	c.Scheduler = scheduler.NewJobScheduler()

	if !c.Config.Reminder.Enabled {
		logger.Info("Due reminders disabled")
		return nil
	}

	var locker scheduler.Locker
	if c.RedisClient != nil {
		locker = c.RedisClient
	}

	job := scheduler.WithLock(locker, reminderLockKey, c.Config.Reminder.Interval, c.sendDueReminders)
	if err := c.Scheduler.AddIntervalJob(reminderJobID, c.Config.Reminder.Interval, job); err != nil {
		return fmt.Errorf("failed to schedule due reminders: %w", err)
	}

	c.Scheduler.Start()
	return nil
}

func (c *Container) sendDueReminders(ctx context.Context) {
	sent, err := c.ReminderService.SendDueReminders(ctx)
	if err != nil {
		logger.Error("Due reminder sweep failed", "sent", sent, "error", err)
		return
	}
	if sent > 0 {
		logger.Info("Due reminders sent", "count", sent)
	}
}

// Ping ใช้กับ /health
func (c *Container) Ping(ctx context.Context) error {
	if c.MongoClient != nil {
		return c.MongoClient.Ping(ctx, nil)
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Container) Cleanup() error {
	logger.Info("Starting cleanup...")

	if c.Scheduler != nil && c.Scheduler.IsRunning() {
		c.Scheduler.Stop()
	}

	if c.NATSSubscriber != nil {
		if err := c.NATSSubscriber.Stop(); err != nil {
			logger.Warn("Failed to stop NATS subscriber", "error", err)
		}
	}

	if c.Hub != nil {
		c.Hub.CloseAll()
	}

	if c.NATSClient != nil {
		if err := c.NATSClient.Close(); err != nil {
			logger.Warn("Failed to close NATS connection", "error", err)
		} else {
			logger.Info("NATS connection closed")
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.Warn("Failed to close Redis connection", "error", err)
		} else {
			logger.Info("Redis connection closed")
		}
	}

	if c.MongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			logger.Warn("Failed to disconnect MongoDB", "error", err)
		} else {
			logger.Info("MongoDB disconnected")
		}
	}

	if c.DB != nil {
		if err := postgres.Close(c.DB); err != nil {
			logger.Warn("Failed to close database connection", "error", err)
		} else {
			logger.Info("Database connection closed")
		}
	}

	logger.Info("Cleanup completed")
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		UserService: c.UserService,
		TaskService: c.TaskService,
		Tokens:      c.Tokens,
		Hub:         c.Hub,
	}
}

func (c *Container) GetRouteConfig() routes.Config {
	cfg := routes.Config{
		Tokens:      c.Tokens,
		AuthLimiter: c.AuthLimiter,
		Roles:       middleware.UserRoleLookup(c.UserService),
		HealthCheck: c.Ping,
	}

	// local storage serve ไฟล์เองที่ path ของ STORAGE_BASE_URL
	if c.Storage.GetProviderName() == "local" {
		cfg.UploadsDir = c.Config.Storage.BasePath
		cfg.UploadsPath = "/uploads"
		if u, err := url.Parse(c.Config.Storage.BaseURL); err == nil && u.Path != "" && u.Path != "/" {
			cfg.UploadsPath = u.Path
		}
	}

	return cfg
}
