package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/hospital/pkg/common/kafka"
	"github.com/synaptica-ai/hospital/pkg/common/logger"
	"github.com/synaptica-ai/hospital/pkg/common/models"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log record change events from the event bus",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.KafkaBrokers) == 0 {
			return errors.New("watch requires KAFKA_BROKERS")
		}

		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
		defer consumer.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Log.WithFields(map[string]interface{}{
			"topic": cfg.KafkaTopic,
			"group": cfg.KafkaGroupID,
		}).Info("Watching record changes")

		err := consumer.Consume(ctx, logEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func logEvent(_ context.Context, event models.Event) error {
	logger.Log.WithFields(map[string]interface{}{
		"event_id": event.ID,
		"type":     event.Type,
		"source":   event.Source,
		"key":      event.Data["key"],
		"actor":    event.Data["actor"],
	}).Info("Record change event")
	return nil
}
