package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProberDuration(t *testing.T) {
	prober := NewProber("", time.Second)
	var gotArgs []string
	prober.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		assert.Equal(t, "ffprobe", binary)
		gotArgs = args
		return []byte(`{"format":{"duration":"12.480000"}}`), nil
	}

	duration, err := prober.Duration(context.Background(), "/tmp/clip.mp4")
	require.NoError(t, err)
	assert.InDelta(t, 12.48, duration, 0.0001)
	assert.Equal(t, "/tmp/clip.mp4", gotArgs[len(gotArgs)-1])
}

func TestProberFailures(t *testing.T) {
	cases := map[string]CommandRunner{
		"command error": func(context.Context, string, ...string) ([]byte, error) { return nil, errors.New("not found") },
		"bad json":      func(context.Context, string, ...string) ([]byte, error) { return []byte("nope"), nil },
		"no duration":   func(context.Context, string, ...string) ([]byte, error) { return []byte(`{"format":{}}`), nil },
	}

	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			prober := &Prober{Binary: "ffprobe", Run: run, Timeout: time.Second}

			_, err := prober.Duration(context.Background(), "clip.mp4")
			assert.Error(t, err)
			assert.Zero(t, prober.DurationOrZero(context.Background(), "clip.mp4"))
		})
	}
}
