package activity

import "time"

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	JobNumber string
	Type      *Type
	Since     time.Time
	Limit     int
	Offset    int
}
