package service

import (
	"context"
	"fmt"
	"sync"

	"seat-monitor/internal/broadcast"
	"seat-monitor/internal/config"
	"seat-monitor/internal/consumer"
	mqttcommon "seat-monitor/internal/mqtt"
	rediscommon "seat-monitor/internal/redis"
	"seat-monitor/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// MonitorService wires the store, engine, ingest consumers and notifiers
type MonitorService struct {
	config      *config.Config
	redisClient *redis.Client
	mqttClient  *mqttcommon.Client
	store       repository.Store
	hub         *broadcast.Hub
	engine      *Engine
	logger      *zap.Logger

	mqttConsumer   *consumer.MQTTConsumer
	streamConsumer *consumer.StreamConsumer
	relays         []*broadcast.Relay

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitorService connects the configured backends and builds the engine.
func NewMonitorService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	s := &MonitorService{
		config: cfg,
		hub:    broadcast.NewHub(logger),
		logger: logger,
	}

	// 1. Redis (store backend, stream ingest or stream notify)
	if cfg.NeedsRedis() {
		client, err := rediscommon.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		s.redisClient = client
	}

	// 2. Store
	store, err := repository.Open(ctx, cfg, s.redisClient, logger)
	if err != nil {
		s.closeClients()
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	s.store = store

	// 3. Engine
	s.engine = NewEngine(ctx, store, s.hub, Options{
		AggregateInterval: cfg.Monitor.AggregateInterval,
		InboxSize:         cfg.Monitor.InboxSize,
		ProlongedMinutes:  cfg.Monitor.ProlongedMinutes,
	}, logger)

	// 4. MQTT (ingest or republish)
	if cfg.NeedsMQTT() {
		client, err := mqttcommon.NewClient(&cfg.MQTT, logger)
		if err != nil {
			s.store.Close()
			s.closeClients()
			return nil, err
		}
		s.mqttClient = client
	}

	// 5. Ingest consumers
	if cfg.Ingest.MQTT.Enabled {
		s.mqttConsumer = consumer.NewMQTTConsumer(s.mqttClient, cfg.Ingest.MQTT.Topic, s.engine, logger)
	}
	if cfg.Ingest.Stream.Enabled {
		s.streamConsumer = consumer.NewStreamConsumer(s.redisClient,
			cfg.Ingest.Stream.Name, cfg.Ingest.Stream.Group, cfg.Ingest.Stream.Consumer,
			s.engine, logger)
	}

	// 6. Notifiers
	buffer := cfg.Monitor.SubscriberBuffer
	if cfg.Notify.Webhook.URL != "" {
		s.addRelay(broadcast.NewRelay(
			broadcast.NewWebhookNotifier(cfg.Notify.Webhook.URL, cfg.Notify.Webhook.Timeout),
			buffer, cfg.Notify.Webhook.Timeout, logger, "alert"))
	}
	if cfg.Notify.Stream.Enabled {
		s.addRelay(broadcast.NewRelay(
			broadcast.NewStreamPublisher(s.redisClient, cfg.Notify.Stream.Name, cfg.Notify.Stream.MaxLen),
			buffer, 0, logger))
	}
	if cfg.Notify.MQTT.Topic != "" {
		s.addRelay(broadcast.NewRelay(
			broadcast.NewMQTTPublisher(s.mqttClient, cfg.Notify.MQTT.Topic),
			buffer, 0, logger))
	}

	return s, nil
}

func (s *MonitorService) addRelay(r *broadcast.Relay) {
	s.relays = append(s.relays, r)
	s.hub.Register(r)
}

// Engine the running engine
func (s *MonitorService) Engine() *Engine {
	return s.engine
}

// Backend configured store backend name
func (s *MonitorService) Backend() string {
	return s.config.Store.Backend
}

// Start launches the engine loop, relays and consumers.
func (s *MonitorService) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.logger.Info("Starting monitor service",
		zap.String("store", s.config.Store.Backend),
		zap.Int("notifiers", len(s.relays)),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.engine.Run(ctx)
	}()

	for _, r := range s.relays {
		s.wg.Add(1)
		go func(r *broadcast.Relay) {
			defer s.wg.Done()
			r.Run(ctx)
		}(r)
	}

	if s.mqttConsumer != nil {
		if err := s.mqttConsumer.Start(ctx); err != nil {
			cancel()
			return fmt.Errorf("failed to start mqtt consumer: %w", err)
		}
	}

	if s.streamConsumer != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.streamConsumer.Start(ctx); err != nil {
				s.logger.Error("Stream consumer exited", zap.Error(err))
			}
		}()
	}

	return nil
}

// Stop drains the pipeline: stop ingest, flush the open window, close outputs.
func (s *MonitorService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping monitor service")

	if s.mqttConsumer != nil {
		_ = s.mqttConsumer.Stop()
	}
	s.engine.Close()

	if _, err := s.engine.FlushAggregates(ctx); err != nil {
		s.logger.Error("Failed to flush aggregates on shutdown", zap.Error(err))
	}

	for _, r := range s.relays {
		r.Close()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close store", zap.Error(err))
	}
	s.closeClients()
	return nil
}

func (s *MonitorService) closeClients() {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis", zap.Error(err))
		}
	}
}
