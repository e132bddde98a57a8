package profiling

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/skillswap/skillswap-api/config"
	"github.com/skillswap/skillswap-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultAppName        = "skillswap-api"
	defaultUploadInterval = 15 * time.Second
	mutexProfileFraction  = 5
	blockProfileRate      = 5
)

// sampleTypes maps O11Y_PROFILING_SAMPLE_TYPES entries to pyroscope profile types
var sampleTypes = map[string][]pyroscope.ProfileType{
	"cpu":           {pyroscope.ProfileCPU},
	"alloc_space":   {pyroscope.ProfileAllocSpace},
	"alloc_objects": {pyroscope.ProfileAllocObjects},
	"inuse_space":   {pyroscope.ProfileInuseSpace},
	"goroutines":    {pyroscope.ProfileGoroutines},
	"mutex":         {pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration},
	"block":         {pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration},
}

// defaultSampleTypes is used when no sample types are configured
var defaultSampleTypes = []string{"cpu", "alloc_space", "alloc_objects", "goroutines", "mutex", "block"}

// Target identifies the profiled process. Non-empty fields become pyroscope tags.
type Target struct {
	Service     string
	Namespace   string
	Version     string
	InstanceID  string
	Environment string
}

func (t Target) tags() map[string]string {
	tags := make(map[string]string, 5)
	for key, value := range map[string]string{
		"service_name":    t.Service,
		"namespace":       t.Namespace,
		"service_version": t.Version,
		"instance":        t.InstanceID,
		"environment":     t.Environment,
	} {
		if value = strings.TrimSpace(value); value != "" {
			tags[key] = value
		}
	}
	return tags
}

// InitProfiler starts continuous profiling and returns its stop func. With
// profiling disabled the stop func is a no-op.
func InitProfiler(cfg config.ProfilingConfig, target Target) (func(), error) {
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return func() {}, nil
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("profiling endpoint is required when profiling is enabled")
	}

	uploadRate := time.Duration(cfg.UploadIntervalSeconds) * time.Second
	if uploadRate <= 0 {
		uploadRate = defaultUploadInterval
	}

	names, err := parseSampleTypes(cfg.SampleTypes)
	if err != nil {
		return nil, err
	}

	// Mutex and block profiles are empty unless the runtime samples them
	if slices.Contains(names, "mutex") {
		runtime.SetMutexProfileFraction(mutexProfileFraction)
	}
	if slices.Contains(names, "block") {
		runtime.SetBlockProfileRate(blockProfileRate)
	}

	appName := strings.TrimSpace(cfg.AppName)
	if appName == "" {
		appName = defaultAppName
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   endpoint,
		UploadRate:      uploadRate,
		Tags:            target.tags(),
		ProfileTypes:    profileTypes(names),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}

	logger.Info("Continuous profiling initialized",
		zap.String("application_name", appName),
		zap.String("endpoint", endpoint),
		zap.Strings("sample_types", names),
		zap.Duration("upload_rate", uploadRate),
	)

	return func() {
		if stopErr := profiler.Stop(); stopErr != nil {
			logger.Error("Failed to stop profiler", zap.Error(stopErr))
		}
	}, nil
}

// parseSampleTypes returns the normalized, de-duplicated sample type names
func parseSampleTypes(value string) ([]string, error) {
	var names []string
	for _, raw := range strings.Split(value, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || slices.Contains(names, name) {
			continue
		}
		if _, ok := sampleTypes[name]; !ok {
			return nil, fmt.Errorf("unsupported O11Y_PROFILING_SAMPLE_TYPES value: %q", name)
		}
		names = append(names, name)
	}

	if len(names) == 0 {
		return defaultSampleTypes, nil
	}
	return names, nil
}

func profileTypes(names []string) []pyroscope.ProfileType {
	var out []pyroscope.ProfileType
	for _, name := range names {
		out = append(out, sampleTypes[name]...)
	}
	return out
}
