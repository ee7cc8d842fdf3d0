package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"charachat/internal/models"
)

const instrumentationName = "charachat/relay"

// ExchangeRecorder receives a record of every completed relay call.
// Record must not block.
type ExchangeRecorder interface {
	Record(ex *models.Exchange)
}

// Call is one relay request as seen by the service.
type Call struct {
	RequestID string
	Transport string
	Message   string
}

// RelayService forwards a single message upstream and decides the reply.
// It holds no per-call state and is safe for concurrent use.
type RelayService struct {
	completer Completer // nil when no credential is configured
	recorder  ExchangeRecorder
	logger    *slog.Logger
	tracer    trace.Tracer
	duration  metric.Float64Histogram
	calls     metric.Int64Counter
}

func NewRelayService(completer Completer, recorder ExchangeRecorder, logger *slog.Logger) *RelayService {
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter(instrumentationName)
	duration, err := meter.Float64Histogram(
		"relay.upstream.duration",
		metric.WithDescription("Upstream completion call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		logger.Warn("failed to create duration histogram", "error", err)
	}
	calls, err := meter.Int64Counter(
		"relay.calls",
		metric.WithDescription("Relay calls by outcome status"),
	)
	if err != nil {
		logger.Warn("failed to create call counter", "error", err)
	}

	return &RelayService{
		completer: completer,
		recorder:  recorder,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		duration:  duration,
		calls:     calls,
	}
}

// Configured reports whether an upstream credential is available.
func (s *RelayService) Configured() bool {
	return s.completer != nil
}

// Send forwards call.Message and returns the reply. Errors are ErrNotConfigured,
// *UpstreamError, or anything else (an internal failure); use StatusOf to map
// them onto the wire.
func (s *RelayService) Send(ctx context.Context, call Call) (string, error) {
	ex := &models.Exchange{
		ID:        uuid.New(),
		RequestID: call.RequestID,
		Transport: call.Transport,
		Message:   call.Message,
		CreatedAt: time.Now(),
	}

	if s.completer == nil {
		s.logger.Error("API key is not configured", "request_id", call.RequestID)
		s.finish(ctx, ex, "", ErrNotConfigured)
		return "", ErrNotConfigured
	}

	ctx, span := s.tracer.Start(ctx, "relay.complete",
		trace.WithAttributes(
			attribute.String("relay.request_id", call.RequestID),
			attribute.String("relay.transport", call.Transport),
			attribute.Int("relay.message_length", len(call.Message)),
		),
	)
	defer span.End()

	start := time.Now()
	reply, err := s.completer.Complete(ctx, call.Message)
	elapsed := time.Since(start)
	ex.DurationMS = elapsed.Milliseconds()

	if s.duration != nil {
		s.duration.Record(ctx, float64(elapsed.Milliseconds()))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var upErr *UpstreamError
		if errors.As(err, &upErr) {
			ex.UpstreamStatus = upErr.StatusCode
			s.logger.Error("upstream API error",
				"request_id", call.RequestID,
				"status", upErr.StatusCode,
				"body", upErr.Body,
			)
		} else {
			s.logger.Error("relay call failed", "request_id", call.RequestID, "error", err)
		}

		s.finish(ctx, ex, "", err)
		return "", err
	}

	if reply == "" {
		s.logger.Warn("upstream returned no content, using fallback reply", "request_id", call.RequestID)
		reply = FallbackReply
	}

	s.logger.Info("relay call completed",
		"request_id", call.RequestID,
		"transport", call.Transport,
		"duration_ms", ex.DurationMS,
	)
	s.finish(ctx, ex, reply, nil)
	return reply, nil
}

func (s *RelayService) finish(ctx context.Context, ex *models.Exchange, reply string, err error) {
	ex.Reply = reply
	ex.Status = http.StatusOK
	if err != nil {
		ex.Status, _ = StatusOf(err)
		ex.Error = err.Error()
	}

	if s.calls != nil {
		s.calls.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", ex.Status)))
	}
	if s.recorder != nil {
		s.recorder.Record(ex)
	}
}
