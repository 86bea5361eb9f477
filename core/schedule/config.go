// Package schedule implements the two placement passes of the engine: the
// geographic-first batch scheduler and the gap-filling scheduler. Both
// operate on an immutable snapshot and return a full placed/unplaced
// accounting; per-job problems never abort a run.
package schedule

import (
	"fmt"

	"github.com/fieldops/fieldsched/core/geo"
)

// Config carries the tunables shared by the batch and fill-in passes.
type Config struct {
	// SpeedMPH is the average driving speed used when the matrix has no
	// entry for a site pair.
	SpeedMPH float64 `koanf:"speed_mph" json:"speed_mph"`
	// WorkdayStartHour and WorkdayEndHour bound the working-day window,
	// fractional hours from midnight.
	WorkdayStartHour float64 `koanf:"workday_start_hour" json:"workday_start_hour"`
	WorkdayEndHour   float64 `koanf:"workday_end_hour" json:"workday_end_hour"`
	// NightCutoffHour is the latest on-site start for a night-only job.
	NightCutoffHour float64 `koanf:"night_cutoff_hour" json:"night_cutoff_hour"`
	// MinGapHours is the smallest idle interval the fill-in pass considers.
	MinGapHours float64 `koanf:"min_gap_hours" json:"min_gap_hours"`
	// CorridorSlackHours is subtracted from a gap before fitting a
	// candidate, absorbing drive-time estimate error.
	CorridorSlackHours float64 `koanf:"corridor_slack_hours" json:"corridor_slack_hours"`
	// OvernightThresholdMiles: a day ending farther than this from home
	// keeps the technician out overnight instead of routing home.
	OvernightThresholdMiles float64 `koanf:"overnight_threshold_miles" json:"overnight_threshold_miles"`
	// RadiusMilesCap excludes jobs farther than this from a technician's
	// home. Zero disables the cap.
	RadiusMilesCap float64 `koanf:"radius_miles_cap" json:"radius_miles_cap"`
	// NightRecoveryFactor scales the daily budget on the day after a
	// night job.
	NightRecoveryFactor float64 `koanf:"night_recovery_factor" json:"night_recovery_factor"`
}

// SetDefaults fills unset fields with the documented defaults.
func (c *Config) SetDefaults() {
	if c.SpeedMPH <= 0 {
		c.SpeedMPH = geo.DefaultSpeedMPH
	}
	if c.WorkdayStartHour <= 0 {
		c.WorkdayStartHour = 8
	}
	if c.WorkdayEndHour <= 0 {
		c.WorkdayEndHour = 17
	}
	if c.NightCutoffHour <= 0 {
		c.NightCutoffHour = 21
	}
	if c.MinGapHours <= 0 {
		c.MinGapHours = 1
	}
	if c.CorridorSlackHours < 0 {
		c.CorridorSlackHours = 0
	} else if c.CorridorSlackHours == 0 {
		c.CorridorSlackHours = 0.25
	}
	if c.OvernightThresholdMiles <= 0 {
		c.OvernightThresholdMiles = 90
	}
	if c.NightRecoveryFactor <= 0 {
		c.NightRecoveryFactor = 0.5
	}
}

// Validate rejects configurations no pass can run with.
func (c Config) Validate() error {
	if c.WorkdayEndHour <= c.WorkdayStartHour {
		return fmt.Errorf("schedule config: workday end %.2f not after start %.2f", c.WorkdayEndHour, c.WorkdayStartHour)
	}
	if c.WorkdayEndHour > 24 || c.WorkdayStartHour < 0 {
		return fmt.Errorf("schedule config: workday window outside [0,24]")
	}
	if c.NightCutoffHour > 24 {
		return fmt.Errorf("schedule config: night cutoff past midnight")
	}
	if c.SpeedMPH <= 0 {
		return fmt.Errorf("schedule config: speed must be positive")
	}
	if c.NightRecoveryFactor <= 0 || c.NightRecoveryFactor > 1 {
		return fmt.Errorf("schedule config: night recovery factor must be in (0,1]")
	}
	return nil
}
