package models

import (
	"encoding/json"
	"strings"
)

// AuditLogEntry represents a Cloud Audit Log entry as delivered by an
// Eventarc push or a log-router Pub/Sub sink. Only the fields the service
// reads are modeled; unknown fields are ignored on decode.
type AuditLogEntry struct {
	ProtoPayload AuditLogPayload `json:"protoPayload"`
	InsertID     string          `json:"insertId,omitempty"`
	LogName      string          `json:"logName,omitempty"`
	Severity     string          `json:"severity,omitempty"`
	Timestamp    string          `json:"timestamp,omitempty"`
}

// AuditLogPayload represents the protoPayload section of an audit log entry
type AuditLogPayload struct {
	Type               string             `json:"@type,omitempty"`
	MethodName         string             `json:"methodName"`
	ResourceName       string             `json:"resourceName"`
	ServiceName        string             `json:"serviceName,omitempty"`
	AuthenticationInfo AuthenticationInfo `json:"authenticationInfo"`
}

// AuthenticationInfo identifies the principal that performed the audited call
type AuthenticationInfo struct {
	PrincipalEmail string `json:"principalEmail"`
}

// SecretEvent is the normalized view of an audit log entry that the rest of
// the service works with.
type SecretEvent struct {
	Method   string `json:"method"`
	Resource string `json:"resource"`
	Caller   string `json:"caller"`
}

// CallerUnknown is reported when the audit entry carries no principal email.
const CallerUnknown = "unknown"

// ParseAuditEntry extracts the secret event from an audit log entry. Missing
// fields fall back to zero values; the method keeps only the final
// dot-separated segment of the fully qualified API method name.
func ParseAuditEntry(entry *AuditLogEntry) SecretEvent {
	if entry == nil {
		return SecretEvent{Caller: CallerUnknown}
	}

	method := entry.ProtoPayload.MethodName
	if i := strings.LastIndex(method, "."); i >= 0 {
		method = method[i+1:]
	}

	caller := entry.ProtoPayload.AuthenticationInfo.PrincipalEmail
	if caller == "" {
		caller = CallerUnknown
	}

	return SecretEvent{
		Method:   method,
		Resource: entry.ProtoPayload.ResourceName,
		Caller:   caller,
	}
}

// Type classifies the event by its short method name
func (e SecretEvent) Type() EventType {
	return ClassifyMethod(e.Method)
}

// DecodeAuditEntry unmarshals a raw LogEntry JSON body
func DecodeAuditEntry(data []byte) (*AuditLogEntry, error) {
	var entry AuditLogEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
