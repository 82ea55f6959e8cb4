package enums

// OutboxAggregateType mirrors aggregate_type_enum.
type OutboxAggregateType string

const AggregateOrder OutboxAggregateType = "order"

func (a OutboxAggregateType) IsValid() bool {
	return oneOf(a, []OutboxAggregateType{AggregateOrder})
}

// OutboxEventType mirrors event_type_enum.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
)

var outboxEventTypes = []OutboxEventType{EventOrderCreated, EventOrderStatusChanged}

func (e OutboxEventType) String() string { return string(e) }

func (e OutboxEventType) IsValid() bool { return oneOf(e, outboxEventTypes) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse("event type", value, outboxEventTypes, false)
}

// OutboxDLQErrorReason explains why the publisher dead-lettered a row.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return oneOf(r, []OutboxDLQErrorReason{OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable})
}
