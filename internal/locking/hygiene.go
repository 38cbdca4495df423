package locking

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"kopi/internal/config"
	"kopi/internal/paths"
)

const (
	markerSuffix   = ".marker"
	stagingSegment = ".staging-"
)

// HygieneReport summarizes a startup sweep, grounded on
// original_source/src/locking/hygiene.rs's LockHygieneReport.
type HygieneReport struct {
	RemovedLocks   int
	RemovedMarkers int
	RemovedStaging int
	Errors         int
	Duration       time.Duration
}

// DefaultHygieneThreshold derives a conservative staleness age from the
// configured lock timeout: max(timeout+60s, 10min), matching spec §4.4's
// hygiene sweep rule exactly.
func DefaultHygieneThreshold(timeout time.Duration) time.Duration {
	const minimum = 10 * time.Minute
	candidate := timeout + 60*time.Second
	if candidate < minimum {
		return minimum
	}
	return candidate
}

// RunStartupHygiene walks <kopi_home>/locks/ and removes stale fallback
// artifacts, run once at CLI startup per spec §4.4. Advisory lock files
// without a marker are left alone — their locks are OS-managed and release
// automatically when the holding process exits.
func RunStartupHygiene(kopiHome string, lockingCfg config.LockingConfig) (HygieneReport, error) {
	root := paths.New(kopiHome).LocksDir()
	threshold := DefaultHygieneThreshold(lockingCfg.Timeout())
	return sweep(root, threshold, time.Now())
}

func sweep(root string, threshold time.Duration, now time.Time) (HygieneReport, error) {
	start := time.Now()
	var report HygieneReport

	if _, err := os.Stat(root); os.IsNotExist(err) {
		report.Duration = time.Since(start)
		return report, nil
	}

	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Warnf("failed to read lock directory %s: %v", dir, err)
			report.Errors++
			continue
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				stack = append(stack, path)
				continue
			}

			switch {
			case isMarker(entry.Name()):
				processMarker(path, now, threshold, &report)
			case isStaging(entry.Name()):
				processStaging(path, now, threshold, &report)
			}
		}
	}

	report.Duration = time.Since(start)
	log.Debugf("lock hygiene sweep removed %d lock(s), %d marker(s), %d staging file(s) in %.3fs (errors: %d)",
		report.RemovedLocks, report.RemovedMarkers, report.RemovedStaging, report.Duration.Seconds(), report.Errors)
	return report, nil
}

func processMarker(path string, now time.Time, threshold time.Duration, report *HygieneReport) {
	info, err := os.Stat(path)
	if err != nil {
		log.Warnf("failed to read metadata for marker %s: %v", path, err)
		report.Errors++
		return
	}
	if !isStale(info, now, threshold) {
		return
	}

	lockPath := strings.TrimSuffix(path, markerSuffix)
	removed, err := removeIfExistsReport(lockPath)
	if err != nil {
		log.Warnf("failed to remove fallback lock file %s: %v", lockPath, err)
		report.Errors++
	} else if removed {
		report.RemovedLocks++
	}

	removed, err = removeIfExistsReport(path)
	if err != nil {
		log.Warnf("failed to remove fallback marker %s: %v", path, err)
		report.Errors++
	} else if removed {
		report.RemovedMarkers++
	}
}

func processStaging(path string, now time.Time, threshold time.Duration, report *HygieneReport) {
	info, err := os.Stat(path)
	if err != nil {
		log.Warnf("failed to read metadata for staging file %s: %v", path, err)
		report.Errors++
		return
	}
	if !isStale(info, now, threshold) {
		return
	}

	removed, err := removeIfExistsReport(path)
	if err != nil {
		log.Warnf("failed to remove fallback staging file %s: %v", path, err)
		report.Errors++
	} else if removed {
		report.RemovedStaging++
	}
}

func isMarker(name string) bool { return strings.HasSuffix(name, markerSuffix) }
func isStaging(name string) bool { return strings.Contains(name, stagingSegment) }

func isStale(info os.FileInfo, now time.Time, threshold time.Duration) bool {
	age := now.Sub(info.ModTime())
	return age >= threshold
}

func removeIfExistsReport(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
