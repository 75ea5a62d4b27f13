package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/logging"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Prober reads media durations with ffprobe.
type Prober struct {
	Binary  string
	Run     CommandRunner
	Timeout time.Duration
}

// NewProber constructs a Prober that shells out to the ffprobe binary.
func NewProber(binary string, timeout time.Duration) *Prober {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Prober{Binary: binary, Run: defaultCommandRunner, Timeout: timeout}
}

// Duration returns the length of the media file at path in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	if p == nil {
		return 0, fmt.Errorf("ffprobe: prober unavailable")
	}
	run := p.Run
	if run == nil {
		run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	out, err := run(execCtx, p.Binary, "-v", "error", "-show_entries", "format=duration", "-of", "json", path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(payload.Format.Duration), 64)
	if err != nil || duration < 0 {
		return 0, fmt.Errorf("ffprobe: invalid duration %q", payload.Format.Duration)
	}
	return duration, nil
}

// DurationOrZero probes path and falls back to 0 with a warning. Duration is
// informational and never blocks an upload.
func (p *Prober) DurationOrZero(ctx context.Context, path string) float64 {
	duration, err := p.Duration(ctx, path)
	if err != nil {
		logging.FromContext(ctx).Warn("probe media duration", "error", err)
		return 0
	}
	return duration
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
