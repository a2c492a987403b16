package runbook

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/azureautomation/run-tasks-on-azure-virtual-machines-using-the-custom-script-extension/api"
)

// Trigger associates a staged script with a target VM and instructs the
// instance's extension handler to execute it.
type Trigger struct {
	compute Compute
	blobs   BlobStore
	logger  zerolog.Logger
}

// NewTrigger creates a trigger over the given services.
func NewTrigger(compute Compute, blobs BlobStore, logger zerolog.Logger) *Trigger {
	return &Trigger{compute: compute, blobs: blobs, logger: logger}
}

// Run captures the pre-trigger baseline marker and configures the
// handler to execute the staged script. The returned marker is the
// reference point the poller compares against: equality means the script
// has not completed yet.
func (t *Trigger) Run(ctx context.Context, vmName string, staged api.StagedScript, arguments string) (string, error) {
	view, err := t.compute.ExtensionView(ctx, vmName)
	if err != nil {
		return "", err
	}
	baseline := api.MarkerNever
	if view.Present {
		baseline = view.Marker
	}

	scriptURL := t.blobs.BlobURL(staged.Container, staged.Name)
	if err := t.compute.RunScript(ctx, vmName, scriptURL, staged.Name, arguments); err != nil {
		return "", &api.TriggerError{VM: vmName, Err: err}
	}

	t.logger.Info().
		Str("vm", vmName).
		Str("script", staged.Name).
		Str("baseline", baseline).
		Msg("custom script extension configured")
	return baseline, nil
}
