package metrics

import "fmt"

// Tag creates a formatted DataDog tag string in "key:value" format.
func Tag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}

// SlotTag tags a metric with a content type such as "bio" or "funfact:lore".
func SlotTag(slot string) string {
	return Tag("slot", slot)
}

// OutcomeTag tags a fetch with "success" or the failure kind.
func OutcomeTag(outcome string) string {
	return Tag("outcome", outcome)
}

// KindTag tags a metric with an error kind.
func KindTag(kind string) string {
	return Tag("kind", kind)
}

// ReasonTag tags an eviction with its cause (capacity/expired).
func ReasonTag(reason string) string {
	return Tag("reason", reason)
}

func OperationTag(op string) string {
	return Tag("operation", op)
}

func ComponentTag(component string) string {
	return Tag("component", component)
}

// CircuitStateTag creates a circuit breaker state tag.
func CircuitStateTag(state string) string {
	return Tag("circuit_state", state)
}
