package middleware

import (
	"errors"

	"github.com/grafana/pyroscope-go"

	"github.com/duynhne/contact-service/config"
)

var profiler *pyroscope.Profiler

// InitProfiling starts Pyroscope continuous profiling.
// The application name comes from Kubernetes metadata when available, otherwise SERVICE_NAME.
func InitProfiling(cfg config.ProfilingConfig) error {
	if !cfg.Enabled {
		return errors.New("profiling is disabled (PROFILING_ENABLED=false)")
	}

	serviceName, namespace := detectServiceInfo(cfg.ServiceName)

	pcfg := pyroscope.Config{
		ApplicationName: serviceName,
		ServerAddress:   cfg.Endpoint,
		Tags: map[string]string{
			"service":   serviceName,
			"namespace": namespace,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		},
		Logger: pyroscope.StandardLogger,
	}

	var err error
	profiler, err = pyroscope.Start(pcfg)
	return err
}

// StopProfiling stops Pyroscope profiling
func StopProfiling() {
	if profiler != nil {
		_ = profiler.Stop()
	}
}
