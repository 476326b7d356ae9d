// Package infra contains technical adapters: the search engine, metrics
// exporters, the zerolog logger and error monitoring. These packages should
// depend only on the interfaces defined in the core packages.
package infra
