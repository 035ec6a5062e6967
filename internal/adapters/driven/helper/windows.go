package helper

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/logger"
)

// Ensure WindowSource implements the interfaces.
var (
	_ driven.WindowSource     = (*WindowSource)(nil)
	_ driven.ActivationSource = (*WindowSource)(nil)
)

// WindowSource enumerates windows and displays through the windows helper.
type WindowSource struct {
	runner *Runner
	argv   []string
}

// NewWindowSource creates a window source for argv.
func NewWindowSource(runner *Runner, argv []string) *WindowSource {
	return &WindowSource{runner: runner, argv: argv}
}

// ListWindows returns every on-screen window.
func (s *WindowSource) ListWindows(ctx context.Context) ([]domain.WindowInfo, error) {
	out, err := s.runner.Run(ctx, s.argv, nil, "windows")
	if err != nil {
		return nil, fmt.Errorf("listing windows: %w", err)
	}
	var windows []domain.WindowInfo
	if err := json.Unmarshal(out, &windows); err != nil {
		return nil, fmt.Errorf("decoding windows: %w", err)
	}
	return windows, nil
}

// ListDisplays returns the display topology.
func (s *WindowSource) ListDisplays(ctx context.Context) ([]domain.Display, error) {
	out, err := s.runner.Run(ctx, s.argv, nil, "displays")
	if err != nil {
		return nil, fmt.Errorf("listing displays: %w", err)
	}
	var displays []domain.Display
	if err := json.Unmarshal(out, &displays); err != nil {
		return nil, fmt.Errorf("decoding displays: %w", err)
	}
	return displays, nil
}

// Activations starts the helper in streaming mode and returns application
// activations as they are reported. The channel closes when the helper
// exits or ctx is cancelled.
func (s *WindowSource) Activations(ctx context.Context) (<-chan string, error) {
	if len(s.argv) == 0 {
		return nil, domain.ErrNotImplemented
	}
	args := append(append([]string(nil), s.argv[1:]...), "activations")
	cmd := exec.CommandContext(ctx, s.argv[0], args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("activation pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting activation helper: %w", err)
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			app := strings.TrimSpace(scanner.Text())
			if app == "" {
				continue
			}
			select {
			case out <- app:
			case <-ctx.Done():
			}
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			logger.Warn("activation helper exited", "error", err)
		}
	}()
	return out, nil
}
