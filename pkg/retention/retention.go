// Package retention enforces "keep only the newest K timestamps" over the
// local archive. Output families are pruned by distinct embedded timestamp so
// every variant of a dropped instant goes together; raw inputs are pruned by
// ordinal name position. Both policies are idempotent and safe to re-run.
package retention

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-pkgz/lgr"
)

// ParseFunc extracts the timestamp embedded in a file name.
type ParseFunc func(name string) (time.Time, bool)

// Window returns the newest keep distinct timestamps among files in dir
// matching glob, ascending. Files without a parseable timestamp are ignored.
func Window(dir, glob string, keep int, parse ParseFunc) ([]time.Time, error) {
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", glob, err)
	}

	seen := map[int64]time.Time{}
	for _, path := range matches {
		if ts, ok := parse(filepath.Base(path)); ok {
			seen[ts.Unix()] = ts
		}
	}

	stamps := make([]time.Time, 0, len(seen))
	for _, ts := range seen {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

	if keep > 0 && len(stamps) > keep {
		stamps = stamps[len(stamps)-keep:]
	}
	return stamps, nil
}

// PruneOutputs removes every file in dir matching glob whose embedded
// timestamp falls outside the newest keep distinct timestamps. keep <= 0
// disables pruning. Returns the number of files removed.
func PruneOutputs(dir, glob string, keep int, parse ParseFunc) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	window, err := Window(dir, glob, keep, parse)
	if err != nil {
		return 0, err
	}
	return PruneOutside(dir, glob, window, parse)
}

// PruneOutside removes files in dir matching glob whose embedded timestamp is
// not in the window. Files without a timestamp are left alone. Used directly
// to constrain a subordinate family (extended overlays) to its parent's
// retention window.
func PruneOutside(dir, glob string, window []time.Time, parse ParseFunc) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return 0, fmt.Errorf("glob %s: %w", glob, err)
	}

	allowed := map[int64]struct{}{}
	for _, ts := range window {
		allowed[ts.Unix()] = struct{}{}
	}

	removed := 0
	for _, path := range matches {
		ts, ok := parse(filepath.Base(path))
		if !ok {
			continue
		}
		if _, keep := allowed[ts.Unix()]; keep {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		removed++
	}
	if removed > 0 {
		lgr.Printf("[DEBUG] pruned %d files from %s", removed, dir)
	}
	return removed, nil
}

// PruneInputs removes raw input files in dir matching glob beyond the newest
// keep, ordered by name sort. Timestamped names sort chronologically so the
// tail of the sorted listing is the newest data. keep <= 0 disables pruning.
func PruneInputs(dir, glob string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return 0, fmt.Errorf("glob %s: %w", glob, err)
	}
	sort.Strings(matches)
	if len(matches) <= keep {
		return 0, nil
	}

	removed := 0
	for _, path := range matches[:len(matches)-keep] {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		removed++
	}
	if removed > 0 {
		lgr.Printf("[DEBUG] pruned %d inputs from %s", removed, dir)
	}
	return removed, nil
}

// RemoveAll deletes every file in dir matching glob. Used to clean up legacy
// artifact families that are no longer produced.
func RemoveAll(dir, glob string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return 0, fmt.Errorf("glob %s: %w", glob, err)
	}
	removed := 0
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}

// RemoveEmptyDirs removes now-empty subdirectories under root, deepest first,
// leaving root itself in place. Extraction can leave such husks behind once
// their members are pruned.
func RemoveEmptyDirs(root string) error {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("walk %s: %w", root, err)
	}

	// deepest first so nested empties collapse in one pass
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		if len(entries) == 0 {
			if err := os.Remove(dir); err != nil {
				lgr.Printf("[WARN] failed to remove empty dir %s: %v", dir, err)
			}
		}
	}
	return nil
}
