package report

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Fantasim/looter/internal/config"
)

// Store persists the ledger and its rendered text in a working directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) dataPath() string { return filepath.Join(s.dir, config.ReportDataFile) }
func (s *Store) textPath() string { return filepath.Join(s.dir, config.ReportTextFile) }
func (s *Store) archiveDir() string { return filepath.Join(s.dir, config.ReportArchiveDir) }

// Peek reads the stored ledger without rotating it.
func (s *Store) Peek() (*State, error) {
	data, err := os.ReadFile(s.dataPath())
	if err != nil {
		return nil, err
	}
	return decodeState(data)
}

// PeekText reads the last rendered report.
func (s *Store) PeekText() (string, error) {
	data, err := os.ReadFile(s.textPath())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Load returns the ledger for the week containing now. A missing or
// unreadable ledger yields a fresh one; a ledger from another week is
// archived first. Load never fails.
func (s *Store) Load(now time.Time) *State {
	fresh := func() *State {
		return NewState(WeeklyPeriod(now))
	}

	st, err := s.Peek()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("report ledger unreadable, starting fresh",
				"path", s.dataPath(),
				"error", err,
			)
		}
		return fresh()
	}

	st.PeriodStart = st.PeriodStart.In(now.Location())
	st.PeriodEnd = st.PeriodEnd.In(now.Location())

	if !st.Contains(now) {
		path, err := s.Archive(st)
		if err != nil {
			slog.Warn("failed to archive previous report",
				"periodStart", st.PeriodStart,
				"periodEnd", st.PeriodEnd,
				"error", err,
			)
		} else {
			slog.Info("previous report archived", "path", path)
		}
		return fresh()
	}

	return st
}

// Save writes the ledger and its rendering, replacing the previous files.
func (s *Store) Save(st *State) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(s.dataPath(), data, 0o644); err != nil {
		return fmt.Errorf("write report data: %w", err)
	}
	if err := os.WriteFile(s.textPath(), []byte(Render(st)), 0o644); err != nil {
		return fmt.Errorf("write report text: %w", err)
	}
	return nil
}

// Archive copies the current report files for st's period into the archive
// directory and returns the text file path. Existing archives are never
// overwritten; a numeric suffix is appended instead.
func (s *Store) Archive(st *State) (string, error) {
	if err := os.MkdirAll(s.archiveDir(), 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	base := formatArchiveDate(st.PeriodStart) + "_" + formatArchiveDate(st.PeriodEnd)
	txtPath := uniquePath(filepath.Join(s.archiveDir(), base+".txt"))

	text, err := os.ReadFile(s.textPath())
	if err != nil {
		text = []byte(Render(st))
	}
	if err := os.WriteFile(txtPath, text, 0o644); err != nil {
		return "", fmt.Errorf("write archive text: %w", err)
	}

	data, err := os.ReadFile(s.dataPath())
	if err != nil {
		if data, err = json.MarshalIndent(st, "", "  "); err != nil {
			return "", fmt.Errorf("encode archive data: %w", err)
		}
	}
	jsonPath := strings.TrimSuffix(txtPath, ".txt") + ".json"
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive data: %w", err)
	}

	return txtPath, nil
}

// uniquePath returns path if free, else the first free "<name>_<n><ext>".
func uniquePath(path string) string {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return path
	}

	ext := filepath.Ext(path)
	name := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := name + "_" + strconv.Itoa(i) + ext
		if _, err := os.Stat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
	}
}
