package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/you/chainguard/domain"
	"github.com/you/chainguard/internal/config"
	"github.com/you/chainguard/internal/flow"
	"github.com/you/chainguard/internal/infrastructure/auth"
	"github.com/you/chainguard/internal/infrastructure/credentials"
	"github.com/you/chainguard/internal/infrastructure/database"
	"github.com/you/chainguard/internal/infrastructure/notifications"
	"github.com/you/chainguard/internal/infrastructure/repositories"
	"github.com/you/chainguard/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger *log.Logger

	// Infrastructure, directory driver only
	DB          *gorm.DB
	RedisClient *redis.Client

	// Repositories, directory driver only
	UserRepo      domain.UserRepository
	ChallengeRepo domain.ChallengeRepository

	// Services
	PasswordSvc     domain.PasswordService
	NotificationSvc domain.NotificationService
	Credentials     domain.CredentialService
	Auditor         domain.AuditLogger
	Sessions        *services.SessionManager
	Flow            *flow.Controller
}

// NewContainer creates and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
		Logger: log.New(os.Stderr, "chainguard ", log.LstdFlags),
	}

	container.PasswordSvc = auth.NewPasswordService(cfg.BcryptCost)
	container.Auditor = services.NewLogAuditor(container.Logger)

	if err := container.initCredentials(ctx); err != nil {
		container.Close()
		return nil, err
	}

	container.Sessions = services.NewSessionManager(container.Credentials, container.PasswordSvc, container.Auditor, services.SessionConfig{
		ChallengeTTL: cfg.OTP_TTL,
		Logger:       container.Logger,
	})
	container.Flow = flow.NewController(container.Sessions, flow.LogNavigator{Logger: container.Logger}, flow.Config{
		Countdown:    int(cfg.OTP_TTL.Seconds()),
		TickInterval: cfg.OTP_Tick,
		Logger:       container.Logger,
	})

	return container, nil
}

func (c *Container) initCredentials(ctx context.Context) error {
	switch c.Config.CredentialsDriver {
	case config.DriverDirectory:
		return c.initDirectory(ctx)
	default:
		c.Credentials = credentials.NewSimulated(c.Config.MockDelay)
		c.Logger.Printf("credentials: simulated, delay=%s", c.Config.MockDelay)
		return nil
	}
}

func (c *Container) initDirectory(ctx context.Context) error {
	db, err := database.Open(c.Config.DBDriver, c.Config.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	c.DB = db
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	c.RedisClient = database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if err := database.Ping(ctx, c.RedisClient); err != nil {
		return err
	}

	c.UserRepo = repositories.NewUserRepository(db)
	c.ChallengeRepo = repositories.NewChallengeRepository(c.RedisClient, c.Config.OTP_TTL)
	c.NotificationSvc = notifications.NewTwilioService(
		c.Config.TwilioSID,
		c.Config.TwilioToken,
		c.Config.TwilioFrom,
		c.Logger,
	)

	c.Credentials = services.NewDirectoryService(c.UserRepo, c.ChallengeRepo, c.PasswordSvc, c.NotificationSvc, services.DirectoryConfig{
		CodeLength: c.Config.OTP_Length,
		CodeTTL:    c.Config.OTP_TTL,
		Logger:     c.Logger,
	})
	c.Logger.Printf("credentials: directory, database=%s redis=%s", c.Config.DBDriver, c.Config.RedisAddr)
	return nil
}

// Close stops the countdown and closes all connections
func (c *Container) Close() error {
	if c.Flow != nil {
		c.Flow.Close()
	}

	if c.RedisClient != nil {
		c.RedisClient.Close()
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}
