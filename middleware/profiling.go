package middleware

import (
	"github.com/grafana/pyroscope-go"

	"github.com/duynhne/card-service/config"
)

var profiler *pyroscope.Profiler

// InitProfiling starts continuous profiling to Pyroscope
func InitProfiling(cfg *config.Config) error {
	serviceName, namespace := detectServiceInfo(cfg.Profiling.ServiceName)

	var err error
	profiler, err = pyroscope.Start(pyroscope.Config{
		ApplicationName: serviceName,
		ServerAddress:   cfg.Profiling.Endpoint,
		Tags: map[string]string{
			"service":   serviceName,
			"namespace": namespace,
			"version":   cfg.Service.Version,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	return err
}

// StopProfiling stops Pyroscope profiling
func StopProfiling() {
	if profiler != nil {
		_ = profiler.Stop()
	}
}
