package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresAddressAndName(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "shop"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, zap.NewNop())
	assert.Error(t, err)
}

func TestProfilerConfig_ProfileTypes(t *testing.T) {
	assert.Equal(t, DefaultProfileTypes, ProfilerConfig{}.profileTypes())

	types := ProfilerConfig{
		ProfileTypes:         []pyroscope.ProfileType{pyroscope.ProfileCPU},
		MutexProfileFraction: 5,
		BlockProfileRate:     5,
	}.profileTypes()
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration,
		pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration,
	}, types)
	assert.Len(t, DefaultProfileTypes, 4)
}

func TestHTTPRequestLabels(t *testing.T) {
	assert.Equal(t, map[string]string{
		LabelController: "orders",
		LabelRoute:      "/api/v1/orders/:id",
		LabelMethod:     "GET",
	}, HTTPRequestLabels("orders", "/api/v1/orders/:id", "GET", ""))
	assert.Empty(t, HTTPRequestLabels("", "", "", ""))
}

func TestLabelPairs(t *testing.T) {
	pairs := labelPairs(map[string]string{
		"Route":      "/api/v1/products",
		"user-role":  "admin",
		"order_id":   "b7c0",
		"empty":      "",
		"!!":         "dropped",
		"controller": strings.Repeat("x", MaxLabelValueLength+10),
	})

	assert.Equal(t, []string{
		"controller", strings.Repeat("x", MaxLabelValueLength),
		"route", "/api/v1/products",
		"user_role", "admin",
	}, pairs)
}

func TestWithProfilingLabels_AlwaysRunsFn(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	for _, labels := range []map[string]string{nil, {"user_id": "u-1"}, {"route": "/api/v1/cart"}} {
		ran := false
		WithProfilingLabels(ctx, labels, func(inner context.Context) {
			ran = true
			assert.Equal(t, "v", inner.Value(key{}))
		})
		assert.True(t, ran)
	}
}
