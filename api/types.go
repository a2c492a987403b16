// Package api defines the shared types and error taxonomy for the
// custom script runbook.
package api

// ScriptSource selects the script payload: either inline content to be
// staged, or the name of a blob already present in the container.
// Exactly one field must be set.
type ScriptSource struct {
	Inline   string
	FileName string
}

// StagedScript is a script payload addressable by the VM's extension
// handler.
type StagedScript struct {
	Name      string
	Container string
}

// MarkerNever is the execution marker reported when the custom script
// handler has never run on the instance.
const MarkerNever = "empty"

// ExtensionView is one observation of the custom script handler on a VM.
// Marker is a timestamp-like token used purely for change detection.
type ExtensionView struct {
	Present bool
	Marker  string
	Stdout  string
	Stderr  string
}

// PollResultKind discriminates completion-poll outcomes.
type PollResultKind int

const (
	// PollDone means the marker changed: the script finished.
	PollDone PollResultKind = iota
	// PollTimedOut means the attempt budget was exhausted without change.
	PollTimedOut
)

// PollResult is the outcome of a completion poll.
type PollResult struct {
	Kind     PollResultKind
	Stdout   string
	Stderr   string
	Attempts int
}
