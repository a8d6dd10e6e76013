package telemetry

import (
	"context"
	"fmt"
	"maps"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// DefaultProfileTypes covers CPU, heap and goroutines
var DefaultProfileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// ProfilerConfig configures continuous profiling with Pyroscope
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string

	// ProfileTypes defaults to DefaultProfileTypes
	ProfileTypes []pyroscope.ProfileType

	// Non-zero rates turn on the runtime's mutex and block profiling and
	// add the matching profile types
	MutexProfileFraction int
	BlockProfileRate     int
}

func (c ProfilerConfig) profileTypes() []pyroscope.ProfileType {
	types := slices.Clone(c.ProfileTypes)
	if len(types) == 0 {
		types = slices.Clone(DefaultProfileTypes)
	}
	if c.MutexProfileFraction > 0 {
		types = append(types, pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration)
	}
	if c.BlockProfileRate > 0 {
		types = append(types, pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration)
	}
	return types
}

// Profiler wraps a running Pyroscope session. A disabled profiler is a no-op.
type Profiler struct {
	session *pyroscope.Profiler
	logger  *zap.Logger
	once    sync.Once
}

func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		return p, nil
	}
	if cfg.ServerAddress == "" || cfg.ApplicationName == "" {
		return nil, fmt.Errorf("profiler: server address and application name are required")
	}

	if cfg.MutexProfileFraction > 0 {
		runtime.SetMutexProfileFraction(cfg.MutexProfileFraction)
	}
	if cfg.BlockProfileRate > 0 {
		runtime.SetBlockProfileRate(cfg.BlockProfileRate)
	}

	tags := map[string]string{}
	if host, err := os.Hostname(); err == nil {
		tags["hostname"] = host
	}
	if pod := os.Getenv("POD_NAME"); pod != "" {
		tags["pod"] = pod
	}

	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Tags:              tags,
		ProfileTypes:      cfg.profileTypes(),
		Logger:            logger.Named("pyroscope").Sugar(),
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}
	p.session = session
	logger.Info("Continuous profiling enabled",
		zap.String("server", cfg.ServerAddress),
		zap.String("application", cfg.ApplicationName))
	return p, nil
}

func (p *Profiler) IsEnabled() bool { return p.session != nil }

// Stop flushes and ends the session; later calls return nil
func (p *Profiler) Stop() error {
	var err error
	p.once.Do(func() {
		if p.session == nil {
			return
		}
		if err = p.session.Stop(); err != nil {
			err = fmt.Errorf("stop pyroscope: %w", err)
		}
	})
	return err
}

// ---------------------------------------------------------------------------
// Labels
// ---------------------------------------------------------------------------

// Profiling label keys
const (
	LabelController = "controller"
	LabelRoute      = "route"
	LabelMethod     = "method"
	LabelRole       = "role"
)

// MaxLabelValueLength truncates longer label values
const MaxLabelValueLength = 128

// per-entity identifiers would explode the number of profile series
var unboundedLabels = map[string]bool{
	"user_id":    true,
	"order_id":   true,
	"product_id": true,
	"request_id": true,
	"trace_id":   true,
	"span_id":    true,
}

// HTTPRequestLabels builds the label set for one request, skipping empty values
func HTTPRequestLabels(controller, route, method, role string) map[string]string {
	labels := make(map[string]string, 4)
	for k, v := range map[string]string{
		LabelController: controller,
		LabelRoute:      route,
		LabelMethod:     method,
		LabelRole:       role,
	} {
		if v != "" {
			labels[k] = v
		}
	}
	return labels
}

// WithProfilingLabels runs fn with the labels attached to CPU samples taken
// on its goroutine. fn always runs, with or without labels.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// labelPairs flattens labels into key/value pairs sorted by key. Keys are
// reduced to [a-z0-9_]; empty pairs and unbounded keys are dropped.
func labelPairs(labels map[string]string) []string {
	clean := make(map[string]string, len(labels))
	for k, v := range labels {
		key := labelKey(k)
		if key == "" || v == "" || unboundedLabels[key] {
			continue
		}
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		clean[key] = v
	}

	keys := slices.Sorted(maps.Keys(clean))
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, clean[k])
	}
	return pairs
}

func labelKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == '-' || r == ' ':
			return '_'
		default:
			return -1
		}
	}, key)
}
