package messaging

import (
	"context"
	"log"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/application"
	messaging "github.com/rodolfodevapp/eventshop-messaging-go/rabbitmq"
)

// Producer para pos.sync.events
func NewNotificationBus(rabbitUri string, deviceID string) *messaging.RabbitMqEventBus {
	opts := messaging.RabbitMqOptions{
		URI:          rabbitUri,
		ExchangeName: "pos.sync.events",
		QueuePrefix:  "pos-sync.notifier." + deviceID,
		Prefetch:     32,
		RetryDelayMs: 30000,
	}
	return messaging.NewRabbitMqEventBus(opts, nil, nil)
}

// Consumer para device.events. Each till gets its own queue prefix so every
// till sees every connectivity change.
func NewDeviceEventBus(rabbitUri string, deviceID string) *messaging.RabbitMqEventBus {
	opts := messaging.RabbitMqOptions{
		URI:          rabbitUri,
		ExchangeName: "device.events",
		QueuePrefix:  "pos-sync.device." + deviceID,
		Prefetch:     8,
		RetryDelayMs: 5000,
	}
	return messaging.NewRabbitMqEventBus(opts, nil, nil)
}

func RegisterConnectivitySubscriptions(
	ctx context.Context,
	bus *messaging.RabbitMqEventBus,
	connectivityHandler application.EventHandler,
) error {
	bus.Subscribe("ConnectivityChanged", connectivityHandler)

	if err := bus.StartConsumers(ctx); err != nil {
		log.Printf("Error starting device consumers: %v", err)
		return err
	}
	return nil
}
