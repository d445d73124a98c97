package application

import (
	"context"
	"encoding/json"
	"log"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
)

type EventHandler interface {
	Handle(ctx context.Context, ev primitives.Event) error
}

// ConnectivityChangedHandler

type ConnectivityChangedHandler struct {
	monitor  *ConnectivityMonitor
	deviceID string
}

func NewConnectivityChangedHandler(m *ConnectivityMonitor, deviceID string) *ConnectivityChangedHandler {
	return &ConnectivityChangedHandler{monitor: m, deviceID: deviceID}
}

func (h *ConnectivityChangedHandler) Handle(ctx context.Context, ev primitives.Event) error {
	env, ok := ev.(*primitives.IntegrationEventEnvelope)
	if !ok {
		log.Printf("ConnectivityChangedHandler: invalid event type %T", ev)
		return nil
	}
	if env.Type != "ConnectivityChanged" {
		return nil
	}

	var payload domain.ConnectivityChangedPayload
	if err := json.Unmarshal([]byte(env.PayloadJSON), &payload); err != nil {
		log.Printf("ConnectivityChangedHandler: failed to unmarshal payload: %v", err)
		return nil
	}

	// un evento sin deviceId aplica a todas las cajas
	if payload.DeviceID != "" && payload.DeviceID != h.deviceID {
		return nil
	}

	log.Printf("ConnectivityChangedHandler: deviceId=%s online=%t", h.deviceID, payload.Online)
	h.monitor.SetOnline(payload.Online)
	return nil
}
