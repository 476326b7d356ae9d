// Package timeaxis maps domain time values (dates, shift slots, datetimes,
// plain integers) onto an integer tick axis and compresses a set of jobs to
// the ticks at which their active status can change.
//
// Every other package works on ticks only. An Adapter is the single
// conversion boundary and is selected from configuration through the
// registry:
//
//	a, err := timeaxis.New(factory.ModuleConfig{
//	    Type: "daily",
//	    Conf: map[string]any{"origin": "2025-01-01"},
//	})
package timeaxis
