package newsletter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"missive/internal/phase"
)

const (
	issueFileName = "issue"
	cycleFileName = "cycle"
	lockFileName  = ".issue.lock"
)

var (
	// ErrIssueUnreadable reports that the issue counter file could not be
	// opened.
	ErrIssueUnreadable = errors.New("failed to open issue file")
	// ErrIssueInvalid reports that the issue counter file did not contain a
	// single integer.
	ErrIssueInvalid = errors.New("failed to parse issue file")
)

// CurrentIssue reads the issue counter for a newsletter folder.
func CurrentIssue(folder string) (int, error) {
	data, err := os.ReadFile(filepath.Join(folder, issueFileName))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIssueUnreadable, err)
	}
	issue, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrIssueInvalid, strings.TrimSpace(string(data)))
	}
	return issue, nil
}

// WriteIssue overwrites the issue counter with the given value.
func WriteIssue(folder string, issue int) error {
	path := filepath.Join(folder, issueFileName)
	if err := os.WriteFile(path, []byte(strconv.Itoa(issue)), 0o644); err != nil {
		return fmt.Errorf("write issue file: %w", err)
	}
	return nil
}

// CheckAndIncrement advances the issue counter by one when now falls in the
// first week of a cycle. The operation is idempotent per cycle: a sidecar
// marker records the week bucket that last incremented, so repeat daily
// ticks inside the same window leave the counter alone. A file lock
// serializes concurrent ticks against the same folder.
func CheckAndIncrement(folder string, now time.Time) error {
	if phase.Slot(now) != 0 {
		return nil
	}

	lock := flock.New(filepath.Join(folder, lockFileName))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock issue counter: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	stamp := cycleStamp(now)
	cyclePath := filepath.Join(folder, cycleFileName)
	if prev, err := os.ReadFile(cyclePath); err == nil && strings.TrimSpace(string(prev)) == stamp {
		return nil
	}

	issue, err := CurrentIssue(folder)
	if err != nil {
		return err
	}
	if err := WriteIssue(folder, issue+1); err != nil {
		return err
	}
	if err := os.WriteFile(cyclePath, []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("write cycle marker: %w", err)
	}
	return nil
}

// cycleStamp identifies the increment window: the year and week bucket of
// the cycle's first week.
func cycleStamp(t time.Time) string {
	return fmt.Sprintf("%d-%02d", t.Year(), phase.WeekIndex(t))
}
