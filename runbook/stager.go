package runbook

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/azureautomation/run-tasks-on-azure-virtual-machines-using-the-custom-script-extension/api"
)

// Stager materializes a script source as a blob the extension handler
// can fetch.
type Stager struct {
	blobs      BlobStore
	scratchDir string
	logger     zerolog.Logger
}

// NewStager creates a stager that writes transient scratch files under
// scratchDir.
func NewStager(blobs BlobStore, scratchDir string, logger zerolog.Logger) *Stager {
	return &Stager{blobs: blobs, scratchDir: scratchDir, logger: logger}
}

// Stage ensures the script is present in the container. A named file is
// only verified, never uploaded. Inline content is written to a scratch
// file under a fresh identifier and uploaded, overwriting any blob of
// the same name.
func (s *Stager) Stage(ctx context.Context, src api.ScriptSource, container string) (api.StagedScript, error) {
	if src.FileName != "" {
		return s.verifyNamed(ctx, src.FileName, container)
	}
	return s.uploadInline(ctx, src.Inline, container)
}

func (s *Stager) verifyNamed(ctx context.Context, name, container string) (api.StagedScript, error) {
	ok, err := s.blobs.ContainerExists(ctx, container)
	if err != nil {
		return api.StagedScript{}, err
	}
	if !ok {
		return api.StagedScript{}, &api.MissingContainerError{Container: container}
	}

	ok, err = s.blobs.BlobExists(ctx, container, name)
	if err != nil {
		return api.StagedScript{}, err
	}
	if !ok {
		return api.StagedScript{}, &api.MissingScriptError{Container: container, Name: name}
	}

	return api.StagedScript{Name: name, Container: container}, nil
}

func (s *Stager) uploadInline(ctx context.Context, content, container string) (api.StagedScript, error) {
	name := uuid.NewString() + ".ps1"
	path := filepath.Join(s.scratchDir, name)

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return api.StagedScript{}, &api.StagingWriteError{Path: path, Err: err}
	}
	defer os.Remove(path)

	if err := s.blobs.EnsureContainer(ctx, container); err != nil {
		return api.StagedScript{}, &api.StagingUploadError{Container: container, Name: name, Err: err}
	}
	if err := s.blobs.UploadFile(ctx, container, name, path); err != nil {
		return api.StagedScript{}, &api.StagingUploadError{Container: container, Name: name, Err: err}
	}

	s.logger.Debug().Str("container", container).Str("blob", name).Msg("inline script staged")
	return api.StagedScript{Name: name, Container: container}, nil
}
