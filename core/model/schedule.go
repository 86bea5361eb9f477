package model

import "time"

// ScheduledJob is a committed placement of a work order on a technician's
// calendar. StartHour and hour figures are fractional hours from midnight
// local to the schedule date.
type ScheduledJob struct {
	WorkOrder     int       `json:"work_order"`
	TechnicianID  string    `json:"technician_id"`
	Date          time.Time `json:"date"`
	StartHour     float64   `json:"start_hour"`
	DurationHours float64   `json:"duration_hours"`
	DriveHours    float64   `json:"drive_hours"`
	Forced        bool      `json:"forced,omitempty"`
}

// EndHour is the exclusive end of the on-site interval.
func (s ScheduledJob) EndHour() float64 {
	return s.StartHour + s.DurationHours
}

// Overlaps reports whether two placements collide on the same technician's
// day. Placements on different technicians or dates never overlap.
func (s ScheduledJob) Overlaps(other ScheduledJob) bool {
	if s.TechnicianID != other.TechnicianID || !sameDay(s.Date, other.Date) {
		return false
	}
	return s.StartHour < other.EndHour() && other.StartHour < s.EndHour()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DistanceEntry is one precomputed site pair from the distance matrix.
// Entries are symmetric; lookups must not depend on the stored order.
type DistanceEntry struct {
	FromSiteID     int     `json:"from_site_id"`
	ToSiteID       int     `json:"to_site_id"`
	Miles          float64 `json:"miles"`
	DriveTimeHours float64 `json:"drive_time_hours"`
}
