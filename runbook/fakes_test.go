package runbook

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/azureautomation/run-tasks-on-azure-virtual-machines-using-the-custom-script-extension/api"
)

func testLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)
}

type fakeBlobStore struct {
	containers map[string]bool
	blobs      map[string]string // "container/name" -> content
	uploads    int
	ensureErr  error
	uploadErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		containers: make(map[string]bool),
		blobs:      make(map[string]string),
	}
}

func (f *fakeBlobStore) ContainerExists(_ context.Context, container string) (bool, error) {
	return f.containers[container], nil
}

func (f *fakeBlobStore) EnsureContainer(_ context.Context, container string) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.containers[container] = true
	return nil
}

func (f *fakeBlobStore) BlobExists(_ context.Context, container, name string) (bool, error) {
	_, ok := f.blobs[container+"/"+name]
	return ok, nil
}

func (f *fakeBlobStore) UploadFile(_ context.Context, container, name, path string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f.blobs[container+"/"+name] = string(data)
	f.uploads++
	return nil
}

func (f *fakeBlobStore) BlobURL(container, name string) string {
	return "https://fake.blob.local/" + container + "/" + name
}

// fakeCompute serves a scripted sequence of extension views; the last
// view repeats once the sequence is exhausted.
type fakeCompute struct {
	views     []api.ExtensionView
	viewErr   error
	viewCalls int

	runErr   error
	runCalls int
	lastURL  string
	lastFile string
	lastArgs string
}

func (f *fakeCompute) ExtensionView(_ context.Context, _ string) (api.ExtensionView, error) {
	if f.viewErr != nil {
		return api.ExtensionView{}, f.viewErr
	}
	i := f.viewCalls
	f.viewCalls++
	if len(f.views) == 0 {
		return api.ExtensionView{}, nil
	}
	if i >= len(f.views) {
		i = len(f.views) - 1
	}
	return f.views[i], nil
}

func (f *fakeCompute) RunScript(_ context.Context, _, scriptURL, fileName, arguments string) error {
	f.runCalls++
	f.lastURL = scriptURL
	f.lastFile = fileName
	f.lastArgs = arguments
	return f.runErr
}

type fakeAuth struct {
	calls int
	err   error
}

func (f *fakeAuth) Refresh(_ context.Context) error {
	f.calls++
	return f.err
}
