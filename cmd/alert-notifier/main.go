// Package main provides the alert notifier entry point.
// Consumes alert events and dispatches notifications to a webhook sink
// through a worker pool, with a circuit breaker protecting the sink.
package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pharmadesk/go-rxcore/internal/infrastructure/stream"
	"github.com/pharmadesk/go-rxcore/pkg/circuitbreaker"
	"github.com/pharmadesk/go-rxcore/pkg/workerpool"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	brokers := []string{"localhost:9092"}
	if b := os.Getenv("KAFKA_BROKERS"); b != "" {
		brokers = strings.Split(b, ",")
	}

	webhookURL := os.Getenv("NOTIFY_WEBHOOK_URL")
	if webhookURL == "" {
		logger.Fatal("NOTIFY_WEBHOOK_URL is required")
	}

	breakers := circuitbreaker.NewManager(logger)
	httpClient := &http.Client{Timeout: 10 * time.Second}

	poolCfg := workerpool.DefaultConfig()
	pool, err := workerpool.New(poolCfg, func(ctx context.Context, task *workerpool.Task) error {
		return notify(ctx, httpClient, breakers, webhookURL, task)
	}, logger)
	if err != nil {
		logger.Fatal("worker pool creation failed", zap.Error(err))
	}

	pool.Start()
	defer pool.Stop()

	consumerCfg := stream.DefaultConsumerConfig()
	consumerCfg.Brokers = brokers
	consumerCfg.GroupID = "alert-notifier"
	consumerCfg.Topics = []string{stream.TopicAlerts}

	consumer, err := stream.NewConsumer(consumerCfg, func(ctx context.Context, msg *stream.Message) error {
		return pool.Submit(&workerpool.Task{
			ID:      fmt.Sprintf("%s-%d-%d", msg.Topic, msg.Partition, msg.Offset),
			Payload: msg.Value,
		})
	}, logger)
	if err != nil {
		logger.Fatal("consumer creation failed", zap.Error(err))
	}

	consumer.Start()
	logger.Info("alert notifier started",
		zap.Strings("brokers", brokers),
		zap.String("webhook", webhookURL),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	consumer.Stop()
	logger.Info("alert notifier stopped")
}

// notify posts one alert event to the webhook through its circuit breaker.
func notify(ctx context.Context, client *http.Client, breakers *circuitbreaker.Manager, url string, task *workerpool.Task) error {
	breaker := breakers.GetOrCreate("notify-webhook")

	return breaker.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(task.Payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned %d", resp.StatusCode)
		}
		return nil
	})
}
