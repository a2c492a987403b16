package api

import (
	"fmt"
	"time"
)

// NoScriptError indicates neither inline content nor a staged file name
// was supplied.
type NoScriptError struct{}

func (e *NoScriptError) Error() string {
	return "no script specified: provide inline content or a staged file name"
}

// AmbiguousScriptError indicates both inline content and a staged file
// name were supplied.
type AmbiguousScriptError struct{}

func (e *AmbiguousScriptError) Error() string {
	return "ambiguous script source: inline content and a staged file name are mutually exclusive"
}

// MissingContainerError indicates the named storage container does not
// exist.
type MissingContainerError struct {
	Container string
}

func (e *MissingContainerError) Error() string {
	return fmt.Sprintf("no such container: %s", e.Container)
}

// MissingScriptError indicates the named blob does not exist in the
// container.
type MissingScriptError struct {
	Container string
	Name      string
}

func (e *MissingScriptError) Error() string {
	return fmt.Sprintf("no such script: %s in container %s", e.Name, e.Container)
}

// StagingWriteError indicates the inline script could not be written to
// the local scratch file.
type StagingWriteError struct {
	Path string
	Err  error
}

func (e *StagingWriteError) Error() string {
	return fmt.Sprintf("failed to write script to %s: %v", e.Path, e.Err)
}

func (e *StagingWriteError) Unwrap() error { return e.Err }

// StagingUploadError indicates the staged script could not be uploaded
// to the container.
type StagingUploadError struct {
	Container string
	Name      string
	Err       error
}

func (e *StagingUploadError) Error() string {
	return fmt.Sprintf("failed to upload %s to container %s: %v", e.Name, e.Container, e.Err)
}

func (e *StagingUploadError) Unwrap() error { return e.Err }

// InstanceNotFoundError indicates the target virtual machine was not
// found.
type InstanceNotFoundError struct {
	Name string
}

func (e *InstanceNotFoundError) Error() string {
	return fmt.Sprintf("no such virtual machine: %s", e.Name)
}

// TriggerError indicates the extension configuration was rejected.
type TriggerError struct {
	VM  string
	Err error
}

func (e *TriggerError) Error() string {
	return fmt.Sprintf("failed to configure custom script extension on %s: %v", e.VM, e.Err)
}

func (e *TriggerError) Unwrap() error { return e.Err }

// ExecutionError indicates the remote script completed but wrote to its
// error stream. Captured stdout, if any, is still returned alongside.
type ExecutionError struct {
	Stderr string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("script completed with errors: %s", e.Stderr)
}

// PollTimeoutError indicates the completion poll exhausted its attempt
// budget without observing a marker change.
type PollTimeoutError struct {
	Attempts int
	Budget   time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for script completion after %d attempts (%s budget)", e.Attempts, e.Budget)
}
