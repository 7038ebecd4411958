// Package standingsrouter subscribes the standings handlers to their
// topics and publishes whatever they emit.
package standingsrouter

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pickem-club/standings-engine/app/eventbus"
	standingsevents "github.com/pickem-club/standings-engine/app/modules/standings/domain/events"
	standingshandlers "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/handlers"
	"github.com/pickem-club/standings-engine/app/shared/attr"
	"github.com/pickem-club/standings-engine/app/shared/handlerwrapper"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// StandingsRouter owns the watermill router wiring for the module.
type StandingsRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	bus            eventbus.EventBus
	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewStandingsRouter creates the router wrapper. A nil registry (or a
// test environment) disables watermill metrics.
func NewStandingsRouter(
	logger *slog.Logger,
	router *message.Router,
	bus eventbus.EventBus,
	prometheusRegistry *prometheus.Registry,
) *StandingsRouter {
	inTestEnv := os.Getenv(TestEnvironmentFlag) == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil && !inTestEnv {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "", "")
		metricsBuilder = &builder
	}
	return &StandingsRouter{
		logger:         logger,
		Router:         router,
		bus:            bus,
		metricsBuilder: metricsBuilder,
	}
}

// Configure adds middleware and registers every handler.
func (r *StandingsRouter) Configure(ctx context.Context, handlers standingshandlers.Handlers) error {
	if r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{MaxRetries: 3}.Middleware,
	)

	if err := r.RegisterHandlers(ctx, handlers); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}
	return nil
}

// RegisterHandlers subscribes each topic to its handler. Emitted result
// messages carry their destination topic in metadata.
func (r *StandingsRouter) RegisterHandlers(ctx context.Context, handlers standingshandlers.Handlers) error {
	eventsToHandlers := map[string]message.HandlerFunc{
		standingsevents.GameOutcomeFinalizedV1:   handlers.HandleGameOutcomeFinalized,
		standingsevents.PropOutcomeFinalizedV1:   handlers.HandlePropOutcomeFinalized,
		standingsevents.RecomputeRequestedV1:     handlers.HandleRecomputeRequested,
		standingsevents.BulkRecomputeRequestedV1: handlers.HandleBulkRecomputeRequested,
		standingsevents.ValidationRequestedV1:    handlers.HandleValidationRequested,
	}

	for topic, handlerFunc := range eventsToHandlers {
		handlerName := fmt.Sprintf("standings.%s", topic)
		r.Router.AddHandler(
			handlerName,
			topic,
			r.bus.Subscriber(),
			"",
			nil,
			func(msg *message.Message) ([]*message.Message, error) {
				messages, err := handlerFunc(msg)
				if err != nil {
					r.logger.ErrorContext(ctx, "Error processing message",
						attr.String("handler", handlerName),
						attr.String("message_id", msg.UUID),
						attr.Error(err),
					)
					return nil, err
				}

				for _, m := range messages {
					publishTopic := handlerwrapper.TopicFromMetadata(m)
					if publishTopic == "" {
						r.logger.Error("No publish topic on result message, dropping",
							attr.String("handler", handlerName),
							attr.String("message_id", m.UUID),
						)
						continue
					}
					if err := r.bus.Publisher().Publish(publishTopic, m); err != nil {
						return nil, fmt.Errorf("failed to publish to %s: %w", publishTopic, err)
					}
				}
				return nil, nil
			},
		)
	}
	return nil
}

func (r *StandingsRouter) Close() error {
	return r.Router.Close()
}
