package runbook

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/azureautomation/run-tasks-on-azure-virtual-machines-using-the-custom-script-extension/api"
)

// PollState is the complete state needed to resume the completion loop
// after a host suspension. Nothing else is carried across iterations:
// the loop is a pure function of this struct.
type PollState struct {
	VMName      string        `json:"vmName"`
	Baseline    string        `json:"baseline"`
	Attempt     int           `json:"attempt"`
	MaxAttempts int           `json:"maxAttempts"`
	Interval    time.Duration `json:"interval"`
}

// NewPollState derives the attempt budget from the timeout and interval,
// rounding half away from zero.
func NewPollState(vmName, baseline string, interval, timeout time.Duration) PollState {
	return PollState{
		VMName:      vmName,
		Baseline:    baseline,
		MaxAttempts: maxAttempts(timeout, interval),
		Interval:    interval,
	}
}

func maxAttempts(timeout, interval time.Duration) int {
	if interval <= 0 {
		return 0
	}
	return int(math.Round(timeout.Seconds() / interval.Seconds()))
}

// Poller repeatedly queries the target instance's extension status until
// the marker changes or the attempt budget runs out.
type Poller struct {
	compute     Compute
	auth        Authenticator
	checkpoints *CheckpointStore
	logger      zerolog.Logger
}

// NewPoller creates a poller over the given services.
func NewPoller(compute Compute, auth Authenticator, checkpoints *CheckpointStore, logger zerolog.Logger) *Poller {
	return &Poller{compute: compute, auth: auth, checkpoints: checkpoints, logger: logger}
}

// Wait drives st to completion. Each iteration persists a resumption
// checkpoint, refreshes the auth context, and compares the observed
// marker against the baseline. The loop terminates after exactly
// MaxAttempts queries when the marker never changes, and on the first
// differing observation otherwise.
func (p *Poller) Wait(ctx context.Context, st PollState) (api.PollResult, error) {
	for st.Attempt < st.MaxAttempts {
		st.Attempt++

		if err := p.checkpoints.Save(st); err != nil {
			p.logger.Warn().Err(err).Str("vm", st.VMName).Msg("failed to persist checkpoint")
		}
		if err := p.auth.Refresh(ctx); err != nil {
			return api.PollResult{}, err
		}

		view, err := p.compute.ExtensionView(ctx, st.VMName)
		if err != nil {
			return api.PollResult{}, err
		}
		marker := api.MarkerNever
		if view.Present {
			marker = view.Marker
		}

		if marker != st.Baseline {
			p.logger.Debug().
				Str("vm", st.VMName).
				Int("attempt", st.Attempt).
				Str("marker", marker).
				Msg("script execution finished")
			return api.PollResult{
				Kind:     api.PollDone,
				Stdout:   view.Stdout,
				Stderr:   view.Stderr,
				Attempts: st.Attempt,
			}, nil
		}

		if st.Attempt < st.MaxAttempts {
			select {
			case <-ctx.Done():
				return api.PollResult{}, ctx.Err()
			case <-time.After(st.Interval):
			}
		}
	}

	return api.PollResult{Kind: api.PollTimedOut, Attempts: st.Attempt}, nil
}

// Resume reloads the persisted checkpoint for vmName and continues the
// loop from the saved attempt counter.
func (p *Poller) Resume(ctx context.Context, vmName string) (api.PollResult, error) {
	st, ok := p.checkpoints.Load(vmName)
	if !ok {
		return api.PollResult{}, fmt.Errorf("no checkpoint for vm %s", vmName)
	}
	return p.Wait(ctx, st)
}
