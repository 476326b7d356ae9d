// Package factory provides the generic registry behind every pluggable
// component selected by name in configuration: time axes, metrics sinks.
// A module is a type string plus a map of raw settings; factories decode the
// settings into typed structs with Decode and return the implementation.
package factory
