// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"os"
	"strconv"
)

// osEnv reads an environment variable and parses it as T, falling back to
// def when the variable is unset or unparseable. This backs the
// recognised runtime options (shared-heap size, verbose noise,
// worker-thread count).
//
// No available library implements a generic typed env-var binding
// (the closest candidates bind config files, not single scalars), so
// this is the one ambient concern built directly on stdlib:
// os.LookupEnv + strconv.
func osEnv[T int | int64 | uint64 | bool | string](name string, def T) T {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	var zero T
	switch any(zero).(type) {
	case int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return def
		}
		return any(v).(T)
	case int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return def
		}
		return any(v).(T)
	case uint64:
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return def
		}
		return any(v).(T)
	case bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return def
		}
		return any(v).(T)
	case string:
		return any(raw).(T)
	default:
		return def
	}
}

// Config holds the process-wide runtime options consumed at [Init].
type Config struct {
	// SharedHeapSize is the size in bytes of this rank's shared segment.
	SharedHeapSize uint64
	// Noise enables verbose diagnostic logging.
	Noise bool
	// HybridWorkers is the worker-thread count used by hybrid
	// (MPI+threads-style) test configurations; the core does not launch
	// these threads itself, it only reports the configured count to
	// callers that do — launching them is deliberately out of scope here.
	HybridWorkers int
}

const (
	envSharedHeapSize = "PGAS_SHARED_HEAP_SIZE"
	envNoise          = "PGAS_VERBOSE"
	envHybridWorkers  = "PGAS_HYBRID_WORKERS"

	defaultSharedHeapSize uint64 = 128 << 20
)

// configFromEnv builds a Config from the recognised environment variables,
// falling back to documented defaults.
func configFromEnv() Config {
	return Config{
		SharedHeapSize: osEnv(envSharedHeapSize, defaultSharedHeapSize),
		Noise:          osEnv(envNoise, false),
		HybridWorkers:  osEnv(envHybridWorkers, 1),
	}
}
