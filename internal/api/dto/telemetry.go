package dto

import (
	"time"

	"bin-telemetry-service/internal/domain"
)

// BinUpdateRequest is the hardware report; distance is required.
type BinUpdateRequest struct {
	DeviceID  string   `json:"device_id"`
	Distance  *float64 `json:"distance"`
	Battery   float64  `json:"battery"`
	Reception float64  `json:"reception"`
}

type ReadingResponse struct {
	DeviceID     string    `json:"device_id"`
	LevelPercent float64   `json:"level_percent"`
	SavedTime    time.Time `json:"saved_time"`
}

// BinReportResponse carries the stored reading, or none while the bin is
// waiting to be registered.
type BinReportResponse struct {
	DeviceID   string           `json:"device_id"`
	Registered bool             `json:"registered"`
	Reading    *ReadingResponse `json:"reading,omitempty"`
}

func NewBinReportResponse(r domain.BinReport) BinReportResponse {
	out := BinReportResponse{
		DeviceID:   r.Device.DeviceID,
		Registered: r.Device.Registered,
	}
	if r.Reading != nil {
		out.Reading = &ReadingResponse{
			DeviceID:     r.Reading.DeviceID,
			LevelPercent: r.Reading.LevelPercent,
			SavedTime:    r.Reading.Timestamp,
		}
	}
	return out
}

// WeatherUpdateRequest fields left out of the body are not changed.
type WeatherUpdateRequest struct {
	SensorID    string   `json:"sensor_id"`
	Battery     *float64 `json:"battery"`
	Reception   *float64 `json:"reception"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

type WeatherSensorResponse struct {
	SensorID    string    `json:"sensor_id"`
	Battery     *float64  `json:"battery"`
	Reception   *float64  `json:"reception"`
	Temperature *float64  `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	UpdatedAt   time.Time `json:"updated_at"`
	Registered  bool      `json:"registered"`
}

func NewWeatherSensorResponse(s *domain.WeatherSensor) WeatherSensorResponse {
	return WeatherSensorResponse{
		SensorID:    s.SensorID,
		Battery:     s.Battery,
		Reception:   s.Reception,
		Temperature: s.Temperature,
		Humidity:    s.Humidity,
		UpdatedAt:   s.UpdatedAt,
		Registered:  s.Registered,
	}
}
