package dispatch

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"billmail/internal/types"
)

// Metrics records dispatch outcomes for observability backends.
type Metrics interface {
	RecordOutcome(ctx context.Context, eventType types.EventType, state types.DispatchState, reason string)
	RecordLatency(ctx context.Context, eventType types.EventType, duration time.Duration)
}

// NoopMetrics discards every measurement. Used in local mode and tests.
type NoopMetrics struct{}

func (NoopMetrics) RecordOutcome(context.Context, types.EventType, types.DispatchState, string) {}
func (NoopMetrics) RecordLatency(context.Context, types.EventType, time.Duration)              {}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics emits dispatch metrics to AWS CloudWatch.
//
// Metrics emitted:
//   - DispatchOutcome: Dims {EventType, State, Reason} -- on every terminal outcome
//   - DispatchLatency: Dims {EventType} -- wall time of the full pipeline
//
// Compile-time assertion that CloudWatchMetrics implements Metrics.
var _ Metrics = (*CloudWatchMetrics)(nil)

type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchMetrics creates a recorder publishing to the given namespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordOutcome emits a DispatchOutcome count with EventType, State, and
// Reason dimensions. Metric failures are logged, never propagated; losing a
// datapoint must not fail a notification.
func (m *CloudWatchMetrics) RecordOutcome(ctx context.Context, eventType types.EventType, state types.DispatchState, reason string) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String("DispatchOutcome"),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String("EventType"),
						Value: aws.String(string(eventType)),
					},
					{
						Name:  aws.String("State"),
						Value: aws.String(string(state)),
					},
					{
						Name:  aws.String("Reason"),
						Value: aws.String(reason),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record outcome metric",
			"error", err.Error(),
			"event_type", string(eventType),
			"state", string(state),
		)
	}
}

// RecordLatency emits the pipeline wall time in milliseconds with the
// EventType dimension.
func (m *CloudWatchMetrics) RecordLatency(ctx context.Context, eventType types.EventType, duration time.Duration) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String("DispatchLatency"),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String("EventType"),
						Value: aws.String(string(eventType)),
					},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record latency metric",
			"error", err.Error(),
			"event_type", string(eventType),
			"duration_ms", duration.Milliseconds(),
		)
	}
}
