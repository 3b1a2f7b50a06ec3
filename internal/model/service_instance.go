package model

import "time"

// DateLayout is the canonical wire and storage format for service dates.
const DateLayout = "2006-01-02"

// Default start and end times applied when a service instance is
// created implicitly during roster creation.
const (
	DefaultServiceStart = "09:00:00"
	DefaultServiceEnd   = "10:30:00"
)

// ServiceInstance is one dated occurrence of a named recurring service
// as stored in the `services` table.  Rows are unique per
// (date, service type) and are created lazily on first assignment.
//
// Fields:
//  ID          – primary key identifier.
//  Date        – calendar date of the occurrence.
//  ServiceType – name of the recurring service (e.g. "english").
//  StartTime   – start time in HH:MM:SS.
//  EndTime     – end time in HH:MM:SS.
//  CreatedAt   – timestamp of creation.
type ServiceInstance struct {
	ID          uint64    `json:"id"`           // services.id
	Date        time.Time `json:"date"`         // services.service_date
	ServiceType string    `json:"service_type"` // services.service_type
	StartTime   string    `json:"start_time"`   // services.start_time
	EndTime     string    `json:"end_time"`     // services.end_time
	CreatedAt   time.Time `json:"created_at"`   // services.created_at
}
