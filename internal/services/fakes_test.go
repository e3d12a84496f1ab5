package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/ports"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

type memReadings struct {
	mu       sync.Mutex
	readings []domain.Reading
	calls    int
	err      error
}

func (m *memReadings) ListReadings(_ context.Context, from, to time.Time) ([]domain.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Reading, 0, len(m.readings))
	for _, r := range m.readings {
		if !from.IsZero() && r.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && r.Timestamp.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memReadings) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type memDevices struct {
	mu       sync.Mutex
	devices  map[string]*domain.Device
	readings *memReadings
	failNext error
}

func newMemDevices(devices ...*domain.Device) *memDevices {
	m := &memDevices{devices: make(map[string]*domain.Device)}
	for _, d := range devices {
		m.devices[d.DeviceID] = d
	}
	return m
}

func (m *memDevices) ListDevices(context.Context) ([]*domain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Device, 0, len(m.devices))
	for _, d := range m.devices {
		if !d.Registered {
			continue
		}
		c := *d
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.Device) int {
		switch {
		case a.DeviceID < b.DeviceID:
			return -1
		case a.DeviceID > b.DeviceID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *memDevices) GetDevice(_ context.Context, id string) (*domain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, domain.ErrDeviceNotFound
	}
	c := *d
	return &c, nil
}

func (m *memDevices) RecordBinReport(
	_ context.Context,
	u domain.TelemetryUpdate,
	fn func(*domain.Device) (*domain.Reading, error),
) (domain.BinReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devices[u.DeviceID]
	if !ok {
		created := &domain.Device{
			DeviceID:  u.DeviceID,
			Distance:  u.Distance,
			Battery:   u.Battery,
			Reception: u.Reception,
			UpdatedAt: u.At,
		}
		m.devices[u.DeviceID] = created
		c := *created
		return domain.BinReport{Device: &c, Created: true}, nil
	}

	next := *d
	next.Distance, next.Battery, next.Reception, next.UpdatedAt = u.Distance, u.Battery, u.Reception, u.At
	reading, err := fn(&next)
	if err != nil {
		return domain.BinReport{}, err
	}
	if reading != nil && m.failNext != nil {
		err, m.failNext = m.failNext, nil
		return domain.BinReport{}, err
	}

	*d = next
	if reading != nil && m.readings != nil {
		m.readings.mu.Lock()
		m.readings.readings = append(m.readings.readings, *reading)
		m.readings.mu.Unlock()
	}
	c := next
	return domain.BinReport{Device: &c, Reading: reading}, nil
}

type memWeather struct {
	mu      sync.Mutex
	sensors map[string]*domain.WeatherSensor
}

func newMemWeather(sensors ...*domain.WeatherSensor) *memWeather {
	m := &memWeather{sensors: make(map[string]*domain.WeatherSensor)}
	for _, s := range sensors {
		m.sensors[s.SensorID] = s
	}
	return m
}

func (m *memWeather) ListWeatherSensors(context.Context) ([]*domain.WeatherSensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.WeatherSensor, 0, len(m.sensors))
	for _, s := range m.sensors {
		if s.Registered {
			c := *s
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *domain.WeatherSensor) int { return strings.Compare(a.SensorID, b.SensorID) })
	return out, nil
}

func keep(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func (m *memWeather) RecordWeatherReport(_ context.Context, r domain.WeatherReport) (*domain.WeatherSensor, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sensors[r.SensorID]
	if !ok {
		s = &domain.WeatherSensor{SensorID: r.SensorID}
		m.sensors[r.SensorID] = s
	}
	keep(&s.Battery, r.Battery)
	keep(&s.Reception, r.Reception)
	keep(&s.Temperature, r.Temperature)
	keep(&s.Humidity, r.Humidity)
	s.UpdatedAt = r.At
	c := *s
	return &c, !ok, nil
}

type memRoutes struct {
	mu     sync.Mutex
	routes map[string]domain.Route
	order  []string
}

func newMemRoutes() *memRoutes { return &memRoutes{routes: make(map[string]domain.Route)} }

func (m *memRoutes) Create(_ context.Context, r *domain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.routes[r.ID]; ok {
		return errors.New("duplicate route id")
	}
	m.routes[r.ID] = *r
	m.order = append(m.order, r.ID)
	return nil
}

func (m *memRoutes) Get(_ context.Context, id string) (*domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok {
		return nil, domain.ErrRouteNotFound
	}
	return &r, nil
}

func (m *memRoutes) ListRecent(_ context.Context, limit int) ([]*domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Route, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.routes[m.order[i]]
		out = append(out, &r)
	}
	return out, nil
}

func (m *memRoutes) Update(_ context.Context, id string, fn func(*domain.Route) error) (*domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok {
		return nil, domain.ErrRouteNotFound
	}
	if err := fn(&r); err != nil {
		return nil, err
	}
	m.routes[id] = r
	return &r, nil
}

func (m *memRoutes) Delete(_ context.Context, id string, check func(*domain.Route) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok {
		return domain.ErrRouteNotFound
	}
	if err := check(&r); err != nil {
		return err
	}
	delete(m.routes, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	return nil
}

type memCache struct {
	mu          sync.Mutex
	entries     map[[2]time.Time]map[string]domain.Insight
	invalidated int
	getErr      error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[[2]time.Time]map[string]domain.Insight)}
}

func (c *memCache) Get(_ context.Context, from, to time.Time) (map[string]domain.Insight, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[[2]time.Time{from, to}]
	return v, ok, nil
}

func (c *memCache) Put(_ context.Context, from, to time.Time, v map[string]domain.Insight) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[[2]time.Time{from, to}] = v
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.invalidated++
	return nil
}

type fakeNotifier struct {
	mu           sync.Mutex
	fn           func()
	subscribed   chan struct{}
	unsubscribed bool
}

func newFakeNotifier() *fakeNotifier { return &fakeNotifier{subscribed: make(chan struct{})} }

func (n *fakeNotifier) Subscribe(_ context.Context, fn func()) (func(), error) {
	n.mu.Lock()
	n.fn = fn
	n.mu.Unlock()
	close(n.subscribed)
	return func() {
		n.mu.Lock()
		n.unsubscribed = true
		n.mu.Unlock()
	}, nil
}

func (n *fakeNotifier) Fire() {
	n.mu.Lock()
	fn := n.fn
	n.mu.Unlock()
	fn()
}

type failingDirections struct{}

func (failingDirections) GetDirections(context.Context, []domain.DeviceLocation, string) (ports.DirectionsResult, error) {
	return ports.DirectionsResult{}, errors.New("quota exceeded")
}
