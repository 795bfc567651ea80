package models

// EventType represents the lifecycle category of a secret audit event
type EventType string

const (
	EventTypeCreate  EventType = "CREATE"
	EventTypeEnable  EventType = "ENABLE"
	EventTypeDisable EventType = "DISABLE"
	EventTypeDestroy EventType = "DESTROY"
	EventTypeUnknown EventType = "UNKNOWN"
)

// methodEventTypes maps Secret Manager short method names to event types.
// Matching is exact; variants and unrelated methods classify as UNKNOWN.
var methodEventTypes = map[string]EventType{
	"AddSecretVersion":     EventTypeCreate,
	"EnableSecretVersion":  EventTypeEnable,
	"DisableSecretVersion": EventTypeDisable,
	"DestroySecretVersion": EventTypeDestroy,
}

// ClassifyMethod returns the event type for a short method name
func ClassifyMethod(method string) EventType {
	if t, ok := methodEventTypes[method]; ok {
		return t
	}
	return EventTypeUnknown
}
