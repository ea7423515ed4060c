package metrics

import (
	"errors"
	"net/http"

	"github.com/nergy-se/hitemp/pkg/api/v1/types"
	"github.com/nergy-se/hitemp/pkg/hitemp"
	"github.com/nergy-se/hitemp/pkg/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry          *prometheus.Registry
	state             *prometheus.GaugeVec
	controlEnabled    *prometheus.GaugeVec
	controlTarget     *prometheus.GaugeVec
	cycles            *prometheus.CounterVec
	writes            *prometheus.CounterVec
	lastUpdateSuccess prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hitemp_state",
			Help: "Current device values by name. Booleans are 0 or 1.",
		}, []string{"device", "name"}),
		controlEnabled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hitemp_control_enabled",
			Help: "1 if the virtual control is enabled.",
		}, []string{"device", "kind"}),
		controlTarget: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hitemp_control_target_celsius",
			Help: "Target of an enabled virtual control.",
		}, []string{"device", "kind"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hitemp_refresh_cycles_total",
			Help: "Refresh cycles by result.",
		}, []string{"result"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hitemp_param_writes_total",
			Help: "Parameter writes by result.",
		}, []string{"result"}),
		lastUpdateSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hitemp_last_update_success",
			Help: "1 if the most recent refresh cycle succeeded.",
		}),
	}

	m.registry.MustRegister(
		m.state,
		m.controlEnabled,
		m.controlTarget,
		m.cycles,
		m.writes,
		m.lastUpdateSuccess,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetState replaces all values for deviceCode.
func (m *Metrics) SetState(deviceCode string, s state.State) {
	m.state.DeletePartialMatch(prometheus.Labels{"device": deviceCode})
	for name, v := range s.Map() {
		m.state.WithLabelValues(deviceCode, name).Set(v)
	}
}

func (m *Metrics) SetControl(deviceCode string, kind types.ControlKind, enabled bool, target *float64) {
	if !enabled {
		m.controlEnabled.WithLabelValues(deviceCode, string(kind)).Set(0)
		m.controlTarget.DeleteLabelValues(deviceCode, string(kind))
		return
	}
	m.controlEnabled.WithLabelValues(deviceCode, string(kind)).Set(1)
	if target != nil {
		m.controlTarget.WithLabelValues(deviceCode, string(kind)).Set(*target)
	}
}

func (m *Metrics) Cycle(err error) {
	switch {
	case err == nil:
		m.cycles.WithLabelValues("ok").Inc()
		m.lastUpdateSuccess.Set(1)
		return
	case errors.Is(err, hitemp.ErrAuth):
		m.cycles.WithLabelValues("auth").Inc()
	default:
		m.cycles.WithLabelValues("connectivity").Inc()
	}
	m.lastUpdateSuccess.Set(0)
}

func (m *Metrics) Write(ok bool) {
	if ok {
		m.writes.WithLabelValues("ok").Inc()
		return
	}
	m.writes.WithLabelValues("failed").Inc()
}
