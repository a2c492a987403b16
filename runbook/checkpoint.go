package runbook

import (
	"encoding/json"
	"os"
	"sync"
)

// CheckpointStore persists poll state so a suspended run can resume from
// the saved attempt counter. Entries are keyed by VM name.
type CheckpointStore struct {
	mu       sync.RWMutex
	entries  map[string]PollState
	filePath string // for JSON persistence
}

// NewCheckpointStore creates a new checkpoint store.
// If filePath is empty, persistence is disabled.
func NewCheckpointStore(filePath string) *CheckpointStore {
	return &CheckpointStore{
		entries:  make(map[string]PollState),
		filePath: filePath,
	}
}

// Save records the state and writes the store to disk.
func (cs *CheckpointStore) Save(st PollState) error {
	cs.mu.Lock()
	cs.entries[st.VMName] = st
	cs.mu.Unlock()
	return cs.persist()
}

// Load returns the checkpoint for vmName, reading the store from disk
// first if persistence is enabled.
func (cs *CheckpointStore) Load(vmName string) (PollState, bool) {
	if err := cs.load(); err != nil {
		return PollState{}, false
	}
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	st, ok := cs.entries[vmName]
	return st, ok
}

// Clear removes the checkpoint for vmName.
func (cs *CheckpointStore) Clear(vmName string) error {
	cs.mu.Lock()
	delete(cs.entries, vmName)
	cs.mu.Unlock()
	return cs.persist()
}

func (cs *CheckpointStore) persist() error {
	if cs.filePath == "" {
		return nil
	}
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	data, err := json.MarshalIndent(cs.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cs.filePath, data, 0644)
}

func (cs *CheckpointStore) load() error {
	if cs.filePath == "" {
		return nil
	}
	data, err := os.ReadFile(cs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return json.Unmarshal(data, &cs.entries)
}
