package game

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
)

// Snapshot is the persisted progression record.
type Snapshot struct {
	Level     int        `json:"level"`
	MaxLevel  int        `json:"maxLevel"`
	Stability float64    `json:"stability"`
	Score     int        `json:"score"`
	Analytics *Analytics `json:"analytics"`
}

// Store loads and saves snapshots. Load returns (nil, nil) when no snapshot
// exists; a corrupt snapshot is reported as an error so the caller can fall
// back to defaults.
type Store interface {
	Load() (*Snapshot, error)
	Save(*Snapshot) error
}

// --- FileStore ---

// saveFileName is the current on-disk key. legacySaveNames are checked in
// order when it is absent; a hit is rewritten under the current name before
// use, completing the migration.
const saveFileName = "deictic_void_save.json"

var legacySaveNames = []string{
	"deictic_save_v1.json",
	"voidnav_save.json",
}

// FileStore keeps the snapshot as a JSON file in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Load reads the primary save file, falling back to the legacy names. A
// legacy hit is migrated to the primary name. Missing file means a fresh
// start, not an error.
func (fs *FileStore) Load() (*Snapshot, error) {
	snap, err := fs.read(saveFileName)
	if err == nil && snap != nil {
		return snap, nil
	}
	if err != nil {
		return nil, err
	}
	for _, name := range legacySaveNames {
		snap, err := fs.read(name)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			continue
		}
		// Rewrite under the current key so the next load skips the scan.
		if saveErr := fs.Save(snap); saveErr != nil {
			log.Printf("save migration from %s failed: %v", name, saveErr)
		}
		return snap, nil
	}
	return nil, nil
}

// read parses one candidate file. (nil, nil) means absent; a parse failure
// or missing required fields is a corruption error.
func (fs *FileStore) read(name string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(fs.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.Level < levelMin || snap.Level > levelMax {
		return nil, errors.New("snapshot missing or invalid level")
	}
	if snap.Analytics == nil {
		snap.Analytics = NewAnalytics()
	}
	if snap.Analytics.Tags == nil {
		snap.Analytics.Tags = map[TagKey]*TagStats{}
	}
	return &snap, nil
}

// Save writes the snapshot under the primary name.
func (fs *FileStore) Save(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(fs.dir, saveFileName), data, 0o644)
}

// --- MemStore ---

// MemStore is an in-memory Store for tests and the headless harness.
type MemStore struct {
	snap  *Snapshot
	Saves int // write counter, inspected by tests
}

// Load returns the stored snapshot, or (nil, nil) when empty.
func (ms *MemStore) Load() (*Snapshot, error) {
	return ms.snap, nil
}

// Save retains a deep copy via the JSON round trip so later machine
// mutations cannot leak into the "persisted" record.
func (ms *MemStore) Save(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	var cp Snapshot
	if err := json.Unmarshal(data, &cp); err != nil {
		return err
	}
	if cp.Analytics == nil {
		cp.Analytics = NewAnalytics()
	}
	ms.snap = &cp
	ms.Saves++
	return nil
}
