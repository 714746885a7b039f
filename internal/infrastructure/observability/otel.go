package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const meterName = "github.com/zatekoja/facilityinsight"

// Metrics holds all answer-engine metrics
type Metrics struct {
	AnswerCount         metric.Int64Counter
	AnswerDuration      metric.Float64Histogram
	UnclassifiedCount   metric.Int64Counter
	GeocodeFailureCount metric.Int64Counter
}

// Setup initializes OpenTelemetry trace and metric export
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Minute)); err != nil {
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		return meterProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes answer-engine metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	answerCount, err := meter.Int64Counter(
		"engine.answer.count",
		metric.WithDescription("Number of questions answered"),
	)
	if err != nil {
		return nil, err
	}

	answerDuration, err := meter.Float64Histogram(
		"engine.answer.duration",
		metric.WithDescription("Answer pipeline duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	unclassifiedCount, err := meter.Int64Counter(
		"engine.question.unclassified.count",
		metric.WithDescription("Questions that fell through to the generic keyword shape"),
	)
	if err != nil {
		return nil, err
	}

	geocodeFailureCount, err := meter.Int64Counter(
		"geocode.failure.count",
		metric.WithDescription("Place lookups that fell back to the static city table"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		AnswerCount:         answerCount,
		AnswerDuration:      answerDuration,
		UnclassifiedCount:   unclassifiedCount,
		GeocodeFailureCount: geocodeFailureCount,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(meterName)
	return tracer.Start(ctx, spanName)
}

// RecordAnswerMetric records one answered question
func RecordAnswerMetric(ctx context.Context, metrics *Metrics, kind string, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("engine.query.kind", kind))
	metrics.AnswerCount.Add(ctx, 1, attrs)
	metrics.AnswerDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}
