package cmd

import (
	"context"
	"time"

	"github.com/castline/castline/core/config"
	"github.com/castline/castline/core/database"
	"github.com/castline/castline/infrastructure/farcaster"
	"github.com/castline/castline/infrastructure/valkey"
	"github.com/castline/castline/pkg/utils"
	"github.com/castline/castline/scheduling/application"
	"github.com/castline/castline/scheduling/repository"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

var (
	appConfig    *config.Config
	db           *gorm.DB
	valkeyClient *valkey.Client

	castRepo *repository.CastGormRepository
	userRepo *repository.UserGormRepository

	schedulerService *application.SchedulerService
	publisherService *application.PublisherService
	userService      *application.UserService
	publishWorker    *application.PublishWorker
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "castline",
	Short: "Schedule Farcaster casts and publish them when due",
	Long: `Castline persists scheduled casts and publishes each one through the
Neynar API once its time arrives, ordered by priority and age.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalln(err)
	}
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().String("port", "", "HTTP port for the REST server")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	_ = viper.BindPFlag("app_port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("app_debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.AutomaticEnv()
}

// initEnvConfig loads configuration from environment variables
func initEnvConfig() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if envPort := viper.GetString("app_port"); envPort != "" {
		cfg.App.Port = envPort
	}
	if viper.GetBool("app_debug") {
		cfg.App.Debug = true
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	appConfig = cfg
}

func initApp() {
	var err error

	db, err = database.NewDatabase(appConfig)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	castRepo = repository.NewCastGormRepository(db)
	userRepo = repository.NewUserGormRepository(db)

	ctx := context.Background()
	if err := castRepo.Init(ctx); err != nil {
		logrus.Fatalf("Failed to migrate cast schema: %v", err)
	}
	if err := userRepo.Init(ctx); err != nil {
		logrus.Fatalf("Failed to migrate user schema: %v", err)
	}

	if appConfig.Database.ValkeyEnabled {
		valkeyClient, err = valkey.NewClient(valkey.Config{
			Address:   appConfig.Database.ValkeyAddress,
			Password:  appConfig.Database.ValkeyPassword,
			DB:        appConfig.Database.ValkeyDB,
			KeyPrefix: appConfig.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.WithError(err).Warn("Valkey unavailable, falling back to single-instance locking")
			valkeyClient = nil
		}
	}

	if appConfig.Farcaster.NeynarAPIKey == "" {
		logrus.Warn("NEYNAR_API_KEY is empty; publish attempts will be rejected by the API")
	}
	gateway := farcaster.NewClient(appConfig.Farcaster.NeynarAPIKey, appConfig.Farcaster.NeynarBaseURL)

	schedulerService = application.NewSchedulerService(castRepo, userRepo)
	publisherService = application.NewPublisherService(castRepo, userRepo, gateway, application.PublisherOptions{
		BatchLimit:     appConfig.Publisher.BatchLimit,
		Concurrency:    appConfig.Publisher.Concurrency,
		PublishTimeout: appConfig.Farcaster.PublishTimeout,
	})
	userService = application.NewUserService(userRepo, gateway)

	serverID := utils.GetPersistentServerID(appConfig.App.ServerID, appConfig.Paths.Storages)
	var lockFunc application.LockFunc
	if valkeyClient != nil {
		lockFunc = func(ctx context.Context, key string, ttl time.Duration) bool {
			return valkeyClient.AcquireLock(ctx, key, serverID, ttl)
		}
	}
	publishWorker = application.NewPublishWorker(publisherService, appConfig.Publisher.Interval, lockFunc)
}

// StopApp releases process-wide resources on shutdown.
func StopApp() {
	if valkeyClient != nil {
		valkeyClient.Close()
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
