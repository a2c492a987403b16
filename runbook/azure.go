package runbook

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v6"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
)

const armScope = "https://management.azure.com/.default"

type fakeCredential struct{}

func (f *fakeCredential) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "fake-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

// Clients holds all Azure SDK clients.
type Clients struct {
	VirtualMachines *armcompute.VirtualMachinesClient
	Extensions      *armcompute.VirtualMachineExtensionsClient
	StorageAccounts *armstorage.AccountsClient
	Credential      azcore.TokenCredential
}

// NewClients initializes Azure SDK clients.
func NewClients(subscriptionID string, endpointURL string) (*Clients, error) {
	if endpointURL != "" {
		return newClientsWithEndpoint(subscriptionID, endpointURL)
	}
	return newClientsDefault(subscriptionID)
}

func newClientsWithEndpoint(subscriptionID string, endpointURL string) (*Clients, error) {
	cred := &fakeCredential{}
	opts := &arm.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Cloud: cloud.Configuration{
				Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
					cloud.ResourceManager: {
						Endpoint: endpointURL,
						Audience: "https://management.azure.com/",
					},
				},
			},
			InsecureAllowCredentialWithHTTP: true,
		},
	}
	return buildClients(subscriptionID, cred, opts)
}

func newClientsDefault(subscriptionID string) (*Clients, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return buildClients(subscriptionID, cred, nil)
}

func buildClients(subscriptionID string, cred azcore.TokenCredential, opts *arm.ClientOptions) (*Clients, error) {
	vmClient, err := armcompute.NewVirtualMachinesClient(subscriptionID, cred, opts)
	if err != nil {
		return nil, err
	}

	extClient, err := armcompute.NewVirtualMachineExtensionsClient(subscriptionID, cred, opts)
	if err != nil {
		return nil, err
	}

	storageClient, err := armstorage.NewAccountsClient(subscriptionID, cred, opts)
	if err != nil {
		return nil, err
	}

	return &Clients{
		VirtualMachines: vmClient,
		Extensions:      extClient,
		StorageAccounts: storageClient,
		Credential:      cred,
	}, nil
}

// AzureAuthenticator re-establishes the ARM auth context by forcing a
// token fetch against the management scope.
type AzureAuthenticator struct {
	credential azcore.TokenCredential
}

// NewAzureAuthenticator creates an authenticator over the given
// credential.
func NewAzureAuthenticator(credential azcore.TokenCredential) *AzureAuthenticator {
	return &AzureAuthenticator{credential: credential}
}

// Refresh fetches a management-plane token, re-establishing the session
// if the host invalidated it.
func (a *AzureAuthenticator) Refresh(ctx context.Context) error {
	_, err := a.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{armScope},
	})
	return err
}
