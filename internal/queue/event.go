// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationEvent is published whenever a scheduling operation needs to
// reach a member: new roster assignments, overrides, substitutions on both
// sides, and blockout conflicts. It carries enough information for
// downstream consumers to log or deliver without querying the primary
// database.
type NotificationEvent struct {
	MemberID  uint64 `json:"member_id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}
