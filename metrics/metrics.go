// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package metrics registers process counters with rcrowley/go-metrics.
package metrics

import gometrics "github.com/rcrowley/go-metrics"

// NewRegisteredCounter registers and returns a named counter in the default
// registry.
func NewRegisteredCounter(name string, r gometrics.Registry) gometrics.Counter {
	if r == nil {
		r = gometrics.DefaultRegistry
	}
	return gometrics.GetOrRegisterCounter(name, r)
}

// Snapshot returns the current value of every counter in the default
// registry.
func Snapshot() map[string]int64 {
	out := make(map[string]int64)
	gometrics.DefaultRegistry.Each(func(name string, i interface{}) {
		if c, ok := i.(gometrics.Counter); ok {
			out[name] = c.Count()
		}
	})
	return out
}
