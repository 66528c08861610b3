package observability

import (
	"os"
	"strings"

	"github.com/grafana/pyroscope-go"

	"video-ingest-service/pkg/logger"
)

// StartProfiling 启动 pyroscope 持续剖析。
// 通过 PYROSCOPE_SERVER_ADDRESS 开启，未设置时不做任何事。
func StartProfiling(appName string) *pyroscope.Profiler {
	addr := strings.TrimSpace(os.Getenv("PYROSCOPE_SERVER_ADDRESS"))
	if addr == "" {
		return nil
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   addr,
		Tags:            map[string]string{"env": os.Getenv("CONFIG_ENV")},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		logger.Warnf("Pyroscope profiling disabled error=%v", err)
		return nil
	}
	logger.Infof("Pyroscope profiling started app=%s server=%s", appName, addr)
	return profiler
}
