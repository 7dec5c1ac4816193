package observability

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PoolCollector bundles Prometheus metrics for the resource-pool query
// surface and provides a ready-to-serve /metrics handler.
type PoolCollector struct {
	gatherer prometheus.Gatherer

	Enumerations      *prometheus.CounterVec
	OpportunityCounts *prometheus.HistogramVec
	ConfigErrors      *prometheus.CounterVec

	ConfiguredCarriers prometheus.Gauge
	ConfiguredPools    prometheus.Gauge
}

// NewPoolCollector registers resource-pool Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewPoolCollector(reg prometheus.Registerer) (*PoolCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	enumerations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sidelink_enumerations_total",
		Help: "Total number of opportunity enumerations, labeled by carrier and pool.",
	}, []string{"carrier", "pool"})
	enumerations, err := registerCounterVec(reg, enumerations, "sidelink_enumerations_total")
	if err != nil {
		return nil, err
	}

	opportunityCounts := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sidelink_opportunities_per_window",
		Help:    "Number of available slots found per enumeration window.",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
	}, []string{"carrier", "pool"})
	opportunityCounts, err = registerHistogramVec(reg, opportunityCounts, "sidelink_opportunities_per_window")
	if err != nil {
		return nil, err
	}

	configErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sidelink_config_errors_total",
		Help: "Total number of failed pool lookups, labeled by operation.",
	}, []string{"op"})
	configErrors, err = registerCounterVec(reg, configErrors, "sidelink_config_errors_total")
	if err != nil {
		return nil, err
	}

	carriers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sidelink_configured_carriers",
		Help: "Number of carriers with at least one configured pool.",
	}), "sidelink_configured_carriers")
	if err != nil {
		return nil, err
	}
	pools, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sidelink_configured_pools",
		Help: "Total number of configured pools across carriers.",
	}), "sidelink_configured_pools")
	if err != nil {
		return nil, err
	}

	return &PoolCollector{
		gatherer:           gatherer,
		Enumerations:       enumerations,
		OpportunityCounts:  opportunityCounts,
		ConfigErrors:       configErrors,
		ConfiguredCarriers: carriers,
		ConfiguredPools:    pools,
	}, nil
}

// ObserveEnumeration records one Opportunities call and the number of
// available slots it produced.
func (c *PoolCollector) ObserveEnumeration(carrierID uint8, poolID uint16, opportunities int) {
	if c == nil {
		return
	}
	carrier := strconv.Itoa(int(carrierID))
	pool := strconv.Itoa(int(poolID))
	if c.Enumerations != nil {
		c.Enumerations.WithLabelValues(carrier, pool).Inc()
	}
	if c.OpportunityCounts != nil {
		c.OpportunityCounts.WithLabelValues(carrier, pool).Observe(float64(opportunities))
	}
}

// ObserveConfigError records one failed lookup on the named operation.
func (c *PoolCollector) ObserveConfigError(op string) {
	if c == nil || c.ConfigErrors == nil {
		return
	}
	c.ConfigErrors.WithLabelValues(op).Inc()
}

// SetPoolCounts drives the configuration gauges after a device is set up.
func (c *PoolCollector) SetPoolCounts(carriers, pools int) {
	if c == nil {
		return
	}
	if c.ConfiguredCarriers != nil {
		c.ConfiguredCarriers.Set(float64(carriers))
	}
	if c.ConfiguredPools != nil {
		c.ConfiguredPools.Set(float64(pools))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PoolCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
