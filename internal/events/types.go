// Package events provides typed domain events and an in-process event manager.
package events

// EventType represents different event types
type EventType string

const (
	SubmissionCreated      EventType = "SUBMISSION_CREATED"
	SubmissionUpdated      EventType = "SUBMISSION_UPDATED"
	SubmissionVerified     EventType = "SUBMISSION_VERIFIED"
	SubmissionDisputed     EventType = "SUBMISSION_DISPUTED"
	DrawStatusChanged      EventType = "DRAW_STATUS_CHANGED"
	DrawConditionResolved  EventType = "DRAW_CONDITION_RESOLVED"
	ComplianceAlertsRaised EventType = "COMPLIANCE_ALERTS_RAISED"
	BackupCompleted        EventType = "BACKUP_COMPLETED"
	ErrorOccurred          EventType = "ERROR_OCCURRED"
)
