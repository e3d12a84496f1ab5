package handlers

import (
	"context"
	"net/http"

	"bin-telemetry-service/internal/api/dto"
	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/services"

	"go.uber.org/zap"
)

type Ingestor interface {
	IngestBin(ctx context.Context, u services.BinUpdate) (domain.BinReport, error)
	IngestWeather(ctx context.Context, u services.WeatherUpdate) (*domain.WeatherSensor, bool, error)
	WeatherSensors(ctx context.Context) ([]*domain.WeatherSensor, error)
}

type TelemetryHandler struct {
	responder
	ingestor Ingestor
}

func NewTelemetryHandler(ingestor Ingestor, log *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{responder: responder{log: log}, ingestor: ingestor}
}

// IngestBin accepts a bin report. A stored reading answers 201; a report from
// an unregistered bin is accepted with 202 and no reading.
func (h *TelemetryHandler) IngestBin(w http.ResponseWriter, r *http.Request) {
	var req dto.BinUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Distance == nil {
		h.writeError(w, r, http.StatusBadRequest, "distance is required")
		return
	}

	report, err := h.ingestor.IngestBin(r.Context(), services.BinUpdate{
		DeviceID:  req.DeviceID,
		Distance:  *req.Distance,
		Battery:   req.Battery,
		Reception: req.Reception,
	})
	if err != nil {
		h.writeServiceError(w, r, "ingest bin", err)
		return
	}

	status := http.StatusCreated
	if report.Reading == nil {
		status = http.StatusAccepted
	}
	h.writeJSON(w, r, status, dto.NewBinReportResponse(report))
}

// IngestWeather upserts a weather sensor: 201 when it was unknown, 200 otherwise.
func (h *TelemetryHandler) IngestWeather(w http.ResponseWriter, r *http.Request) {
	var req dto.WeatherUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sensor, created, err := h.ingestor.IngestWeather(r.Context(), services.WeatherUpdate{
		SensorID:    req.SensorID,
		Battery:     req.Battery,
		Reception:   req.Reception,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
	})
	if err != nil {
		h.writeServiceError(w, r, "ingest weather", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.writeJSON(w, r, status, dto.NewWeatherSensorResponse(sensor))
}

func (h *TelemetryHandler) ListWeatherSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := h.ingestor.WeatherSensors(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "list weather sensors", err)
		return
	}

	out := make([]dto.WeatherSensorResponse, 0, len(sensors))
	for _, s := range sensors {
		out = append(out, dto.NewWeatherSensorResponse(s))
	}
	h.writeJSON(w, r, http.StatusOK, out)
}
