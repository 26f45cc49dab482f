package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samirbha/settlement-gateway/internal/config"
	"github.com/samirbha/settlement-gateway/internal/notifier"
	"github.com/samirbha/settlement-gateway/internal/repository"
	"github.com/samirbha/settlement-gateway/pkg/logger"
	"github.com/samirbha/settlement-gateway/pkg/pg"
	"github.com/samirbha/settlement-gateway/pkg/prom"
	"github.com/samirbha/settlement-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	webhookConfig := notifier.DefaultWebhookConfig()
	if config.Get().WebhookTimeout > 0 {
		webhookConfig.Timeout = config.Get().WebhookTimeout
	}
	if config.Get().WebhookMaxRetries > 0 {
		webhookConfig.MaxRetries = config.Get().WebhookMaxRetries
	}
	if config.Get().WebhookRetryDelay > 0 {
		webhookConfig.RetryDelay = config.Get().WebhookRetryDelay
	}
	if config.Get().WebhookCircuitBreakerThreshold > 0 {
		webhookConfig.CircuitBreakerThreshold = config.Get().WebhookCircuitBreakerThreshold
	}
	if config.Get().WebhookCircuitBreakerTimeout > 0 {
		webhookConfig.CircuitBreakerTimeout = config.Get().WebhookCircuitBreakerTimeout
	}
	client := notifier.NewWebhookClient(webhookConfig)

	sellerRepo := repository.NewSellerRepository(db)

	// Initialize idempotency service
	idempotencyConfig := notifier.DefaultIdempotencyConfig()
	idempotencyService := notifier.NewIdempotencyService(redisAdap, idempotencyConfig)

	service, err := notifier.NewNotifierService(redisAdap)
	if err != nil {
		logger.Error("failed to create the notifier", "error", err)
		return
	}
	service.RegisterProcessor(notifier.NewOrderEventProcessor(client, sellerRepo, idempotencyService))

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	go func() {
		err := service.Start()
		if err != nil {
			logger.Error("failed to start notifier", "error", err)
		}
	}()

	select {
	case <-c:
		service.Stop()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
