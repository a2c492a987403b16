// Package runbook stages a script in blob storage, configures the target
// virtual machine's custom script extension to execute it, and optionally
// polls the extension status until the script completes.
package runbook

import (
	"context"

	"github.com/azureautomation/run-tasks-on-azure-virtual-machines-using-the-custom-script-extension/api"
)

// --- Service Interfaces ---
//
// These interfaces formalize the external services the runbook drives.
// Each represents a capability that can be backed by the real Azure SDK
// clients or by fakes in tests. Failures surface as typed errors from the
// api package where the taxonomy names them.

// BlobStore stages scripts where the VM's extension handler can fetch
// them.
type BlobStore interface {
	// ContainerExists reports whether the container exists.
	ContainerExists(ctx context.Context, container string) (bool, error)

	// EnsureContainer creates the container if it does not exist.
	EnsureContainer(ctx context.Context, container string) error

	// BlobExists reports whether the named blob exists in the container.
	BlobExists(ctx context.Context, container, name string) (bool, error)

	// UploadFile uploads the local file as the named blob, overwriting
	// any existing blob of that name.
	UploadFile(ctx context.Context, container, name, path string) error

	// BlobURL returns the URL the extension handler downloads from.
	BlobURL(container, name string) string
}

// Compute looks up target instances and drives the custom script handler.
type Compute interface {
	// ExtensionView returns the current custom script handler status for
	// the named VM. Present is false when the handler has never been
	// configured on the instance.
	ExtensionView(ctx context.Context, vmName string) (api.ExtensionView, error)

	// RunScript configures the handler to fetch scriptURL and execute
	// fileName with the given arguments.
	RunScript(ctx context.Context, vmName, scriptURL, fileName, arguments string) error
}

// Authenticator establishes the auth context. Called once up front and
// proactively on every poll iteration, since the host may invalidate the
// session across a suspend/resume boundary.
type Authenticator interface {
	Refresh(ctx context.Context) error
}
