package runbook

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/azureautomation/run-tasks-on-azure-virtual-machines-using-the-custom-script-extension/api"
)

// SuccessResult is returned in fire-and-forget mode: the trigger was
// accepted, not that the script finished.
const SuccessResult = "Success"

// Request describes one runbook invocation.
type Request struct {
	VMName    string
	Source    api.ScriptSource
	Arguments string
	Container string
	Wait      bool
	Interval  time.Duration
	Timeout   time.Duration
}

// Runbook sequences staging, triggering and completion polling.
type Runbook struct {
	stager      *Stager
	trigger     *Trigger
	poller      *Poller
	auth        Authenticator
	checkpoints *CheckpointStore
	logger      zerolog.Logger
}

// New creates a runbook over the given services.
func New(blobs BlobStore, compute Compute, auth Authenticator, checkpoints *CheckpointStore, scratchDir string, logger zerolog.Logger) *Runbook {
	return &Runbook{
		stager:      NewStager(blobs, scratchDir, logger),
		trigger:     NewTrigger(compute, blobs, logger),
		poller:      NewPoller(compute, auth, checkpoints, logger),
		auth:        auth,
		checkpoints: checkpoints,
		logger:      logger,
	}
}

// Run executes one staging → trigger → poll cycle and returns the
// external result string.
//
// Callers must not run concurrent invocations against the same VM: the
// custom script handler holds a single configuration per instance, so a
// second trigger would clobber the first.
func (r *Runbook) Run(ctx context.Context, req Request) (string, error) {
	if req.Source.Inline != "" && req.Source.FileName != "" {
		return "", &api.AmbiguousScriptError{}
	}
	if req.Source.Inline == "" && req.Source.FileName == "" {
		return "", &api.NoScriptError{}
	}

	container := req.Container
	if container == "" {
		container = DefaultContainer
	}
	interval := req.Interval
	if interval <= 0 {
		interval = DefaultPollIntervalSec * time.Second
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeoutSec * time.Second
	}

	if err := r.auth.Refresh(ctx); err != nil {
		return "", err
	}

	staged, err := r.stager.Stage(ctx, req.Source, container)
	if err != nil {
		return "", err
	}

	baseline, err := r.trigger.Run(ctx, req.VMName, staged, req.Arguments)
	if err != nil {
		return "", err
	}

	if !req.Wait {
		return SuccessResult, nil
	}

	st := NewPollState(req.VMName, baseline, interval, timeout)
	res, err := r.poller.Wait(ctx, st)
	if err != nil {
		return "", err
	}
	return r.finish(req.VMName, res, timeout)
}

// Resume continues a suspended completion poll from the persisted
// checkpoint for vmName.
func (r *Runbook) Resume(ctx context.Context, vmName string) (string, error) {
	if err := r.auth.Refresh(ctx); err != nil {
		return "", err
	}
	res, err := r.poller.Resume(ctx, vmName)
	if err != nil {
		return "", err
	}
	return r.finish(vmName, res, 0)
}

// finish clears the checkpoint and maps the poll result to the external
// result. Captured stdout is returned even when the script wrote to its
// error stream.
func (r *Runbook) finish(vmName string, res api.PollResult, budget time.Duration) (string, error) {
	if err := r.checkpoints.Clear(vmName); err != nil {
		r.logger.Warn().Err(err).Str("vm", vmName).Msg("failed to clear checkpoint")
	}

	if res.Kind == api.PollTimedOut {
		return "", &api.PollTimeoutError{Attempts: res.Attempts, Budget: budget}
	}
	if res.Stderr != "" {
		return res.Stdout, &api.ExecutionError{Stderr: res.Stderr}
	}
	return res.Stdout, nil
}
