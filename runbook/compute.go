package runbook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v6"

	"github.com/azureautomation/run-tasks-on-azure-virtual-machines-using-the-custom-script-extension/api"
)

// Custom script handler identity on Windows VMs.
const (
	extensionName      = "CustomScriptExtension"
	extensionPublisher = "Microsoft.Compute"
	extensionVersion   = "1.10"
)

// AzureCompute implements Compute against ARM.
type AzureCompute struct {
	clients       *Clients
	resourceGroup string
	location      string
}

// NewAzureCompute creates a Compute implementation scoped to one
// resource group.
func NewAzureCompute(clients *Clients, resourceGroup, location string) *AzureCompute {
	return &AzureCompute{
		clients:       clients,
		resourceGroup: resourceGroup,
		location:      location,
	}
}

// ExtensionView reads the VM instance view and extracts the custom
// script handler's change marker and output substatuses.
func (c *AzureCompute) ExtensionView(ctx context.Context, vmName string) (api.ExtensionView, error) {
	iv, err := c.clients.VirtualMachines.InstanceView(ctx, c.resourceGroup, vmName, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return api.ExtensionView{}, &api.InstanceNotFoundError{Name: vmName}
		}
		return api.ExtensionView{}, err
	}

	for _, ext := range iv.Extensions {
		if ext == nil || ext.Name == nil || *ext.Name != extensionName {
			continue
		}
		return extensionViewFrom(ext), nil
	}
	return api.ExtensionView{}, nil
}

// extensionViewFrom maps a handler instance view to the runbook's
// observation type. The marker is the latest status timestamp; stdout
// and stderr arrive as ComponentStatus substatuses.
func extensionViewFrom(ext *armcompute.VirtualMachineExtensionInstanceView) api.ExtensionView {
	view := api.ExtensionView{Present: true, Marker: api.MarkerNever}

	if ts := latestStatusTime(ext.Statuses); !ts.IsZero() {
		view.Marker = ts.UTC().Format(time.RFC3339Nano)
	}

	for _, sub := range ext.Substatuses {
		if sub == nil || sub.Code == nil {
			continue
		}
		msg := ""
		if sub.Message != nil {
			msg = *sub.Message
		}
		switch {
		case strings.Contains(*sub.Code, "StdOut"):
			view.Stdout = msg
		case strings.Contains(*sub.Code, "StdErr"):
			view.Stderr = msg
		}
	}
	return view
}

func latestStatusTime(statuses []*armcompute.InstanceViewStatus) time.Time {
	var latest time.Time
	for _, st := range statuses {
		if st != nil && st.Time != nil && st.Time.After(latest) {
			latest = *st.Time
		}
	}
	return latest
}

// RunScript configures the custom script handler to download scriptURL
// and execute it. The handler runs asynchronously; completion is
// observed through the instance view marker, not the ARM operation.
func (c *AzureCompute) RunScript(ctx context.Context, vmName, scriptURL, fileName, arguments string) error {
	command := fmt.Sprintf("powershell -ExecutionPolicy Unrestricted -File %s", fileName)
	if arguments != "" {
		command += " " + arguments
	}

	ext := armcompute.VirtualMachineExtension{
		Location: ptr(c.location),
		Properties: &armcompute.VirtualMachineExtensionProperties{
			Publisher:               ptr(extensionPublisher),
			Type:                    ptr(extensionName),
			TypeHandlerVersion:      ptr(extensionVersion),
			AutoUpgradeMinorVersion: ptr(true),
			Settings: map[string]any{
				"fileUris":         []string{scriptURL},
				"commandToExecute": command,
			},
		},
	}

	poller, err := c.clients.Extensions.BeginCreateOrUpdate(ctx, c.resourceGroup, vmName, extensionName, ext, nil)
	if err != nil {
		return err
	}
	_ = poller
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
