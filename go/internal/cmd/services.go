package main

import (
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/pomopals/pomopals/go/internal/rooms"
	"github.com/pomopals/pomopals/go/internal/rooms/gateway"
	"github.com/pomopals/pomopals/go/internal/rooms/outbox"
	"github.com/pomopals/pomopals/go/internal/tasks"
	tasksdb "github.com/pomopals/pomopals/go/internal/tasks/db"
	"github.com/pomopals/pomopals/go/internal/users"
	usersdb "github.com/pomopals/pomopals/go/internal/users/db"
)

type Services struct {
	Users   *users.Service
	Rooms   *rooms.Service
	Tasks   *tasks.Service
	Gateway *gateway.Service

	OutboxWorker *outbox.Worker
	Publisher    *outbox.JetStreamPublisher
}

func setupServices(database *sql.DB, config *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → Service layer

	// Users
	userQueries := usersdb.New(database)
	userRepo := users.NewRepository(userQueries)
	userService := users.NewService(userRepo)

	// Tasks
	taskQueries := tasksdb.New(database)
	taskRepo := tasks.NewRepository(taskQueries)
	taskService := tasks.NewService(taskRepo)

	// Rooms repository owns its transactions, so it takes the database
	// handle rather than a queries value.
	roomsRepo := rooms.NewRepository(database)

	// Room gateway (registry, router, phase coordinator, scheduler)
	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.ConnectionConfig.PingInterval = secondsOr(
		config.Gateway.PingIntervalSeconds, gatewayConfig.ConnectionConfig.PingInterval)
	gatewayConfig.ConnectionConfig.ReadTimeout = secondsOr(
		config.Gateway.ReadTimeoutSeconds, gatewayConfig.ConnectionConfig.ReadTimeout)
	gatewayConfig.ConnectionConfig.WriteTimeout = secondsOr(
		config.Gateway.WriteTimeoutSeconds, gatewayConfig.ConnectionConfig.WriteTimeout)
	if config.Gateway.SendBufferSize > 0 {
		gatewayConfig.ConnectionConfig.SendBufferSize = config.Gateway.SendBufferSize
	}
	gatewayService := gateway.NewService(gatewayConfig, roomsRepo, clockwork.NewRealClock())

	// Rooms HTTP API; settings updates go through the phase coordinator
	// so they share its per-room serialization.
	roomsService := rooms.NewService(roomsRepo, gatewayService.Phase())

	services := &Services{
		Users:   userService,
		Rooms:   roomsService,
		Tasks:   taskService,
		Gateway: gatewayService,
	}

	if config.Outbox.Enabled {
		jsCfg := outbox.DefaultJetStreamConfig()
		jsCfg.URL = getEnv("NATS_URL", jsCfg.URL)
		if config.Nats.URL != "" {
			jsCfg.URL = config.Nats.URL
		}
		if config.Nats.Stream != "" {
			jsCfg.StreamName = config.Nats.Stream
		}
		if config.Nats.SubjectPrefix != "" {
			jsCfg.SubjectPrefix = config.Nats.SubjectPrefix
		}

		publisher, err := outbox.NewJetStreamPublisher(jsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create outbox publisher: %w", err)
		}

		workerCfg := outbox.DefaultConfig()
		workerCfg.PollInterval = secondsOr(config.Outbox.PollIntervalSeconds, workerCfg.PollInterval)
		if config.Outbox.BatchSize > 0 {
			workerCfg.BatchSize = int32(config.Outbox.BatchSize)
		}

		services.Publisher = publisher
		services.OutboxWorker = outbox.NewWorker(database, publisher, workerCfg)
	}

	return services, nil
}
