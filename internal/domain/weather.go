package domain

import "time"

// WeatherSensor is a field station reporting battery, signal and climate.
// Measurements are nil until the sensor first reports them.
type WeatherSensor struct {
	SensorID    string
	Battery     *float64
	Reception   *float64
	Temperature *float64
	Humidity    *float64
	UpdatedAt   time.Time
	Registered  bool
}

// WeatherReport is one hardware report from a weather sensor.
// A nil field leaves the stored value unchanged.
type WeatherReport struct {
	SensorID    string
	Battery     *float64
	Reception   *float64
	Temperature *float64
	Humidity    *float64
	At          time.Time
}
