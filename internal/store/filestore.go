// Package store persists per-user tax state between runs. The calculation
// engine never touches it; callers load state into a return file, compute,
// and commit the result.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rgehrsitz/taxgo/internal/calculation"
	"github.com/rgehrsitz/taxgo/internal/domain"
	"gopkg.in/yaml.v3"
)

// Key identifies the state of one user in one financial year.
type Key struct {
	User string
	Year domain.FinancialYear
}

func (k Key) String() string {
	return k.User + "/" + k.Year.String()
}

// YearState is what a committed computation leaves behind for a year: the
// loss ledger as it stands after the year, the closing exemption pool and
// the reconciled TDS records.
type YearState struct {
	User      string               `yaml:"user"`
	Year      domain.FinancialYear `yaml:"financial_year"`
	Revision  int                  `yaml:"revision"`
	UpdatedAt time.Time            `yaml:"updated_at,omitempty"`
	Ledger    domain.LossLedger    `yaml:"loss_ledger"`
	Pool      domain.ExemptionPool `yaml:"exemption_pool"`
	TDS       []domain.TDSRecord   `yaml:"tds"`
}

// Exists reports whether the state has ever been saved.
func (s *YearState) Exists() bool {
	return s.Revision > 0
}

// FileStore keeps one YAML file per (user, year) under Dir.
type FileStore struct {
	Dir    string
	locks  *KeyedLocker
	now    func() time.Time
	Logger calculation.Logger
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}
	return &FileStore{
		Dir:    dir,
		locks:  NewKeyedLocker(),
		now:    time.Now,
		Logger: calculation.NopLogger{},
	}, nil
}

// SetLogger sets the logger; nil restores the no-op logger.
func (s *FileStore) SetLogger(l calculation.Logger) {
	if l == nil {
		l = calculation.NopLogger{}
	}
	s.Logger = l
}

func (s *FileStore) userDir(user string) (string, error) {
	if user == "" || user == "." || user == ".." || strings.ContainsAny(user, `/\`) {
		return "", &domain.InputError{Field: "user", Reason: fmt.Sprintf("%q cannot be used as a store key", user), Err: domain.ErrInvalidInput}
	}
	return filepath.Join(s.Dir, user), nil
}

func (s *FileStore) path(key Key) (string, error) {
	dir, err := s.userDir(key.User)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, key.Year.String()+".yaml"), nil
}

// Load reads the state for key. A key that was never saved yields an empty
// state with Revision 0.
func (s *FileStore) Load(key Key) (*YearState, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &YearState{User: key.User, Year: key.Year}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state %s: %w", key, err)
	}
	var st YearState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", key, err)
	}
	if st.User != key.User || st.Year != key.Year {
		return nil, fmt.Errorf("state file %s holds %s/%s", path, st.User, st.Year)
	}
	return &st, nil
}

// Years lists the saved years for a user in ascending order.
func (s *FileStore) Years(user string) ([]domain.FinancialYear, error) {
	dir, err := s.userDir(user)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list state for %s: %w", user, err)
	}
	var years []domain.FinancialYear
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".yaml")
		if e.IsDir() || !ok {
			continue
		}
		fy, err := domain.ParseFinancialYear(name)
		if err != nil {
			continue
		}
		years = append(years, fy)
	}
	sort.Slice(years, func(i, j int) bool { return years[i] < years[j] })
	return years, nil
}

// OpeningLedger is the ledger left by the latest saved year before year.
func (s *FileStore) OpeningLedger(user string, year domain.FinancialYear) (domain.LossLedger, error) {
	years, err := s.Years(user)
	if err != nil {
		return nil, err
	}
	for i := len(years) - 1; i >= 0; i-- {
		if years[i] >= year {
			continue
		}
		st, err := s.Load(Key{User: user, Year: years[i]})
		if err != nil {
			return nil, err
		}
		return st.Ledger.Clone(), nil
	}
	return nil, nil
}

// Seed fills a return with stored state. A ledger given in the return wins
// over the stored one. Stored TDS records replace same-ID records in the
// return so that verification and claims survive between runs.
func (s *FileStore) Seed(rf *domain.ReturnFile) error {
	if rf == nil {
		return fmt.Errorf("return cannot be nil")
	}
	if len(rf.Ledger) == 0 {
		ledger, err := s.OpeningLedger(rf.User, rf.Year)
		if err != nil {
			return err
		}
		rf.Ledger = ledger
	}

	st, err := s.Load(Key{User: rf.User, Year: rf.Year})
	if err != nil {
		return err
	}
	if !st.Exists() {
		return nil
	}
	stored := make(map[string]domain.TDSRecord, len(st.TDS))
	for _, r := range st.TDS {
		stored[r.ID] = r
	}
	seen := make(map[string]bool, len(rf.TDS))
	merged := make([]domain.TDSRecord, 0, len(rf.TDS)+len(st.TDS))
	for _, r := range rf.TDS {
		if prev, ok := stored[r.ID]; ok {
			r = prev
		}
		seen[r.ID] = true
		merged = append(merged, r)
	}
	for _, r := range st.TDS {
		if !seen[r.ID] {
			merged = append(merged, r)
		}
	}
	rf.TDS = merged
	s.Logger.Debugf("seeded %s/%s with %d ledger entries and %d TDS records", rf.User, rf.Year, len(rf.Ledger), len(rf.TDS))
	return nil
}

// Update runs fn on the state for key while holding the key's lock and
// saves the result. Nothing is written when fn fails.
func (s *FileStore) Update(ctx context.Context, key Key, fn func(*YearState) error) (*YearState, error) {
	if _, err := s.path(key); err != nil {
		return nil, err
	}
	release, err := s.locks.Lock(ctx, key.String())
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := s.Load(key)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	st.User, st.Year = key.User, key.Year
	st.Revision++
	st.UpdatedAt = s.now().UTC()
	if err := s.save(key, st); err != nil {
		return nil, err
	}
	s.Logger.Infof("saved %s revision %d", key, st.Revision)
	return st, nil
}

// Commit stores the next state produced by a computation. A CLAIMED record
// may not change once stored.
func (s *FileStore) Commit(ctx context.Context, res *calculation.ReturnResult) (*YearState, error) {
	if res == nil {
		return nil, fmt.Errorf("result cannot be nil")
	}
	key := Key{User: res.User, Year: res.Year}
	return s.Update(ctx, key, func(st *YearState) error {
		next := make(map[string]domain.TDSRecord, len(res.TDS))
		for _, r := range res.TDS {
			next[r.ID] = r
		}
		for _, prev := range st.TDS {
			if prev.Status != domain.TDSClaimed {
				continue
			}
			r, ok := next[prev.ID]
			if !ok || r.Status != domain.TDSClaimed || !r.ClaimedAmount.Equal(prev.ClaimedAmount) {
				return fmt.Errorf("commit %s: record %s: %w", key, prev.ID, domain.ErrRecordImmutable)
			}
		}

		if res.SetOff != nil {
			st.Ledger = res.SetOff.Ledger.Clone()
		}
		st.Pool = res.ClosingPool
		st.TDS = append([]domain.TDSRecord(nil), res.TDS...)
		return nil
	})
}

// UpdateTDS applies fn to one stored TDS record.
func (s *FileStore) UpdateTDS(ctx context.Context, key Key, id string, fn func(domain.TDSRecord) (domain.TDSRecord, error)) (*YearState, error) {
	return s.Update(ctx, key, func(st *YearState) error {
		for i := range st.TDS {
			if st.TDS[i].ID != id {
				continue
			}
			updated, err := fn(st.TDS[i])
			if err != nil {
				return err
			}
			st.TDS[i] = updated
			return nil
		}
		return &domain.InputError{Field: "tds " + id, Reason: "no such record in " + key.String(), Err: domain.ErrInvalidInput}
	})
}

// save writes through a temp file and rename so readers never see a torn file.
func (s *FileStore) save(key Key, st *YearState) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory for %s: %w", key, err)
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode state %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	return nil
}
