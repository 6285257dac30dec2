package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/safedep/dry/log"
)

const (
	profileFileExt = ".sb"

	// maxProfileFiles bounds how many stale profiles can accumulate in the
	// scratch directory when earlier processes crashed before cleanup.
	maxProfileFiles = 10
)

// profileStore manages the ephemeral Seatbelt profile files: uniquely named
// so concurrent executions never collide, deleted after each call, and
// pruned on every write so at most the maxProfileFiles most recent survive
// a crash. The directory is purely a cache and safe to delete externally.
type profileStore struct {
	dir string
}

func newProfileStore() *profileStore {
	return &profileStore{
		dir: filepath.Join(os.TempDir(), "sbx-profiles"),
	}
}

// write persists a profile document under a unique name and prunes the
// directory. Uniqueness is structural (timestamp plus random suffix), so no
// locking is needed across concurrent writers.
func (s *profileStore) write(profile string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", fmt.Errorf("create profile directory: %w", err)
	}

	name := fmt.Sprintf("profile-%d-%s%s", time.Now().UnixNano(), uuid.NewString()[:8], profileFileExt)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, []byte(profile), 0o600); err != nil {
		return "", fmt.Errorf("write profile: %w", err)
	}

	s.prune()
	return path, nil
}

// remove deletes one execution's profile after the child exits. Best effort:
// a failure here is logged and otherwise swallowed — prune reclaims stragglers.
func (s *profileStore) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Debugf("sandbox: profile cleanup failed for %s: %v", path, err)
	}
}

// prune deletes every profile file beyond the maxProfileFiles most recently
// created. It runs on every write regardless of whether the current
// execution succeeds, which caps leakage from crashed processes.
func (s *profileStore) prune() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Debugf("sandbox: profile prune skipped: %v", err)
		return
	}

	type profileFile struct {
		path    string
		modTime time.Time
	}

	files := make([]profileFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != profileFileExt {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, profileFile{
			path:    filepath.Join(s.dir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	if len(files) <= maxProfileFiles {
		return
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	for _, f := range files[maxProfileFiles:] {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			log.Debugf("sandbox: stale profile prune failed for %s: %v", f.path, err)
		}
	}
}
