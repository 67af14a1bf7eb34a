package events

import (
	"encoding/json"
	"time"
)

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// SubmissionData contains data for submission lifecycle events.
// Status selects between created, updated, verified and disputed.
type SubmissionData struct {
	SubmissionID       string `json:"submission_id"`
	DealID             string `json:"deal_id"`
	Period             string `json:"period"`
	VerificationStatus string `json:"verification_status"`
	OverallCompliant   bool   `json:"overall_compliant"`
	Action             string `json:"action"` // "created", "updated", "verified", "disputed"
	Actor              string `json:"actor,omitempty"`
	Reason             string `json:"reason,omitempty"`
}

// EventType returns the event type for SubmissionData
func (d *SubmissionData) EventType() EventType {
	switch d.Action {
	case "updated":
		return SubmissionUpdated
	case "verified":
		return SubmissionVerified
	case "disputed":
		return SubmissionDisputed
	default:
		return SubmissionCreated
	}
}

// DrawStatusChangedData contains data for DrawStatusChanged events
type DrawStatusChangedData struct {
	DrawID     string `json:"draw_id"`
	DealID     string `json:"deal_id"`
	DrawNumber int    `json:"draw_number"`
	From       string `json:"from"`
	To         string `json:"to"`
	Amount     string `json:"amount,omitempty"`
}

// EventType returns the event type for DrawStatusChangedData
func (d *DrawStatusChangedData) EventType() EventType {
	return DrawStatusChanged
}

// DrawConditionResolvedData contains data for DrawConditionResolved events
type DrawConditionResolvedData struct {
	DrawID      string `json:"draw_id"`
	DealID      string `json:"deal_id"`
	ConditionID string `json:"condition_id"`
	Status      string `json:"status"`
	Outstanding int    `json:"outstanding"`
}

// EventType returns the event type for DrawConditionResolvedData
func (d *DrawConditionResolvedData) EventType() EventType {
	return DrawConditionResolved
}

// ComplianceAlertsRaisedData contains data for ComplianceAlertsRaised events
type ComplianceAlertsRaisedData struct {
	DealID       string   `json:"deal_id"`
	Period       string   `json:"period"`
	BreachCount  int      `json:"breach_count"`
	DangerCount  int      `json:"danger_count"`
	CautionCount int      `json:"caution_count"`
	Covenants    []string `json:"covenants"`
	Message      string   `json:"message"`
}

// EventType returns the event type for ComplianceAlertsRaisedData
func (d *ComplianceAlertsRaisedData) EventType() EventType {
	return ComplianceAlertsRaised
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Key       string  `json:"key"`
	SizeBytes int64   `json:"size_bytes"`
	Checksum  string  `json:"checksum"`
	Duration  float64 `json:"duration"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// EventWithData represents an event with typed data
type EventWithData struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// MarshalJSON customizes JSON serialization for EventWithData
func (e *EventWithData) MarshalJSON() ([]byte, error) {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}

	return json.Marshal(aux)
}

// UnmarshalJSON customizes JSON deserialization for EventWithData
func (e *EventWithData) UnmarshalJSON(data []byte) error {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.Data) == 0 {
		return nil
	}

	var eventData EventData
	switch aux.Type {
	case SubmissionCreated, SubmissionUpdated, SubmissionVerified, SubmissionDisputed:
		eventData = &SubmissionData{}
	case DrawStatusChanged:
		eventData = &DrawStatusChangedData{}
	case DrawConditionResolved:
		eventData = &DrawConditionResolvedData{}
	case ComplianceAlertsRaised:
		eventData = &ComplianceAlertsRaisedData{}
	case BackupCompleted:
		eventData = &BackupCompletedData{}
	case ErrorOccurred:
		eventData = &ErrorEventData{}
	default:
		generic := &GenericEventData{Type: aux.Type}
		if err := json.Unmarshal(aux.Data, generic); err != nil {
			return err
		}
		e.Data = generic
		return nil
	}

	if err := json.Unmarshal(aux.Data, eventData); err != nil {
		return err
	}
	e.Data = eventData
	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
