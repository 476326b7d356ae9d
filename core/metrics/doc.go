// Package metrics defines the sinks that observe solver runs. A sink records
// the start of a run, each improving solution and the final result. Sinks
// like the Prometheus and Influx implementations in infra/metrics are created
// from configuration through the registry and fan out via MultiSink when
// several are configured.
package metrics
