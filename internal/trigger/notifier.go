package trigger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ryanbastic/go-cardsheet/internal/circuitbreaker"
	"github.com/ryanbastic/go-cardsheet/internal/metrics"
)

// Notifier dispatches entry events to subscribed plugins via JSON-RPC.
type Notifier struct {
	registry  *PluginRegistry
	rpcClient *RPCClient
	logger    *slog.Logger
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewNotifier creates a Notifier.
func NewNotifier(registry *PluginRegistry, rpcClient *RPCClient, logger *slog.Logger) *Notifier {
	return &Notifier{
		registry:  registry,
		rpcClient: rpcClient,
		logger:    logger,
		timeout:   time.Minute,
	}
}

// NotifyEntry fires a goroutine per plugin subscribed to the event's
// dataset. Errors are logged, not propagated; card mutations are never
// blocked by slow plugins.
func (n *Notifier) NotifyEntry(event string, params EntryEventParams) {
	plugins := n.registry.ForDataSet(params.DataSetID)
	if len(plugins) == 0 {
		return
	}
	if params.OccurredAt.IsZero() {
		params.OccurredAt = time.Now().UTC()
	}

	for _, p := range plugins {
		n.wg.Add(1)
		go func(endpoint, pluginName string) {
			defer n.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
			defer cancel()

			resp, err := n.rpcClient.Call(ctx, endpoint, event, params)
			switch {
			case errors.Is(err, circuitbreaker.ErrCircuitOpen):
				metrics.TriggerNotification(event, "rejected")
				n.logger.Warn("trigger skipped, circuit open", "plugin", pluginName, "endpoint", endpoint, "event", event)
			case err != nil:
				metrics.TriggerNotification(event, "failed")
				n.logger.Error("trigger rpc failed", "plugin", pluginName, "endpoint", endpoint, "event", event, "error", err)
			case resp.Error != nil:
				metrics.TriggerNotification(event, "failed")
				n.logger.Error("trigger rpc returned error", "plugin", pluginName, "endpoint", endpoint, "event", event, "error", resp.Error)
			default:
				metrics.TriggerNotification(event, "delivered")
			}
		}(p.Endpoint, p.Name)
	}
}

// Wait blocks until every in-flight notification has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
