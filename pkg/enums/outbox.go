package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregatePricingRule OutboxAggregateType = "pricing_rule"
	AggregatePriceTier   OutboxAggregateType = "price_tier"
	AggregateQuote       OutboxAggregateType = "quote"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePricingRule,
	AggregatePriceTier,
	AggregateQuote,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventRuleCreated        OutboxEventType = "rule_created"
	EventRuleUpdated        OutboxEventType = "rule_updated"
	EventRuleDeactivated    OutboxEventType = "rule_deactivated"
	EventRuleDeleted        OutboxEventType = "rule_deleted"
	EventRuleChangeProposed OutboxEventType = "rule_change_proposed"
	EventRuleChangeApproved OutboxEventType = "rule_change_approved"
	EventRuleChangeRejected OutboxEventType = "rule_change_rejected"
	EventQuoteResolved      OutboxEventType = "quote_resolved"
)

var validOutboxEventTypes = []OutboxEventType{
	EventRuleCreated,
	EventRuleUpdated,
	EventRuleDeactivated,
	EventRuleDeleted,
	EventRuleChangeProposed,
	EventRuleChangeApproved,
	EventRuleChangeRejected,
	EventQuoteResolved,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
