package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/wyfcoding/pkg/metrics"
	gorm_mysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	riskapp "github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/application"
	riskdomain "github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/domain"
	"github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/infrastructure/messaging"
	riskmysql "github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/infrastructure/persistence/mysql"
	"github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/interfaces/consumer"
	riskhttp "github.com/hfdrk/AI-Muhasebi-sub012/internal/riskengine/interfaces/http"
	tenantapp "github.com/hfdrk/AI-Muhasebi-sub012/internal/tenant/application"
	tenantdomain "github.com/hfdrk/AI-Muhasebi-sub012/internal/tenant/domain"
	tenantmysql "github.com/hfdrk/AI-Muhasebi-sub012/internal/tenant/infrastructure/persistence/mysql"
	tenantredis "github.com/hfdrk/AI-Muhasebi-sub012/internal/tenant/infrastructure/persistence/redis"
	tenanthttp "github.com/hfdrk/AI-Muhasebi-sub012/internal/tenant/interfaces/http"
)

const serviceName = "riskengine"

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/riskengine/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	viper.SetConfigFile(configPath)
	viper.SetDefault("server.http_port", "8086")
	viper.SetDefault("sweep.interval_minutes", 30)
	viper.SetDefault("sweep.max_age_hours", 24)
	viper.SetDefault("sweep.batch_size", 100)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Sprintf("read config failed: %v", err))
	}

	// 2. Logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 3. Database
	dsn := viper.GetString("database.source")
	db, err := gorm.Open(gorm_mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(fmt.Sprintf("connect db failed: %v", err))
	}
	if err := db.AutoMigrate(
		&riskdomain.RiskRule{},
		&riskdomain.RiskScore{},
		&riskdomain.RiskAlert{},
		&tenantdomain.TenantSettings{},
	); err != nil {
		panic(fmt.Sprintf("migrate db failed: %v", err))
	}

	// 4. Infrastructure
	redisClient := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
	})

	ruleRepo := riskmysql.NewRuleRepository(db)
	scoreRepo := riskmysql.NewScoreRepository(db)
	alertRepo := riskmysql.NewAlertRepository(db)
	settingsRepo := tenantredis.NewCachedSettingsRepository(redisClient, tenantmysql.NewSettingsRepository(db))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed builtin rules, existing rows stay untouched
	if err := ruleRepo.SeedMissing(ctx, riskdomain.BuiltinRules()); err != nil {
		panic(fmt.Sprintf("seed rules failed: %v", err))
	}

	brokers := viper.GetStringSlice("kafka.brokers")
	publisher := messaging.NewKafkaEventPublisher(brokers)
	defer publisher.Close()

	// 5. Application
	settingsSvc := tenantapp.NewSettingsService(settingsRepo)
	cmdSvc := riskapp.NewRiskCommandService(ruleRepo, scoreRepo, alertRepo, settingsSvc, publisher, logger)
	querySvc := riskapp.NewRiskQueryService(ruleRepo, scoreRepo, alertRepo)

	// 6. Consumers: upstream pipeline snapshots trigger evaluation
	handler := consumer.NewSnapshotHandler(cmdSvc, logger)
	runner := consumer.NewRunner(brokers, viper.GetString("kafka.group_id"), handler, logger)
	go runner.Run(ctx, consumer.TopicDocumentProcessed)
	go runner.Run(ctx, consumer.TopicCompanyAggregated)

	// 7. Periodic batch sweep
	sweep := riskapp.NewSweepService(
		scoreRepo,
		cmdSvc,
		time.Duration(viper.GetInt("sweep.interval_minutes"))*time.Minute,
		time.Duration(viper.GetInt("sweep.max_age_hours"))*time.Hour,
		viper.GetInt("sweep.batch_size"),
		logger,
	)
	go sweep.Run(ctx)

	// 8. HTTP
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(riskhttp.RequestLogging(logger), riskhttp.Recovery(logger))
	m := metrics.NewMetrics(serviceName)
	e.GET("/sys/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "service": serviceName, "timestamp": time.Now().Unix()})
	})
	e.GET("/metrics", gin.WrapH(m.Handler()))

	root := e.Group("")
	riskhttp.NewRiskHandler(cmdSvc, querySvc).RegisterRoutes(root)
	tenanthttp.NewSettingsHandler(settingsSvc).RegisterRoutes(root)

	httpPort := viper.GetString("server.http_port")
	httpSrv := &http.Server{Addr: ":" + httpPort, Handler: e}

	go func() {
		slog.Info("Starting HTTP server", "port", httpPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		slog.Error("redis close failed", "error", err)
	}
	slog.Info("Server exiting")
}
