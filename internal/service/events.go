package service

import (
	"time"

	"github.com/google/uuid"
)

// Report event types pushed to live subscribers.
const (
	EventReportSubmitted = "report.submitted"
	EventReportReviewed  = "report.reviewed"
	EventReportReopened  = "report.reopened"
	EventCommentPosted   = "comment.posted"
)

// EventPublisher delivers events to clients watching a report. Delivery is
// best effort and never blocks the caller.
type EventPublisher interface {
	Publish(topic string, event interface{})
}

type ReportEvent struct {
	Type     string      `json:"type"`
	ReportID uuid.UUID   `json:"report_id"`
	ActorID  uuid.UUID   `json:"actor_id"`
	Status   string      `json:"status,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	At       time.Time   `json:"at"`
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// NopPublisher discards events.
func NopPublisher() EventPublisher { return nopPublisher{} }

func publish(p EventPublisher, eventType string, reportID, actorID uuid.UUID, status string, data interface{}) {
	p.Publish(reportID.String(), ReportEvent{
		Type:     eventType,
		ReportID: reportID,
		ActorID:  actorID,
		Status:   status,
		Data:     data,
		At:       time.Now().UTC(),
	})
}
