package domain

import "time"

// Reading is a single fill-level sample reported by a device.
// LevelPercent may fall outside 0..100 when the sensor misreads; such values
// are kept so that insights can report them.
type Reading struct {
	DeviceID     string
	LevelPercent float64
	Timestamp    time.Time
}

// DeviceSeries is the time-ordered sequence of readings for one device.
// It is derived per analysis pass and never persisted.
type DeviceSeries []Reading
