package metrics

import "github.com/wyattarnold/StageLP-WSOP/core/factory"

// Config defines settings for metrics sinks. PromPort, when set, exposes
// the Prometheus registry over HTTP for the duration of the process.
type Config struct {
	Sinks    []factory.ModuleConfig `json:"sinks"`
	PromPort string                 `json:"prom_port"`
}

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewMetricsSink creates a MetricsSink from the provided configuration. An
// empty configuration yields a NopSink; multiple sinks are fanned out.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]MetricsSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}
