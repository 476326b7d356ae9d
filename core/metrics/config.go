package metrics

import "github.com/kilianp07/posched/core/factory"

// Config defines settings for metrics sinks. PrometheusAddr, when set, is the
// listen address of the /metrics endpoint.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks"`
	PrometheusAddr string                 `json:"prometheus_addr"`
}
