// Package jsonstore is the flat-file tracking store: one JSON file per
// model, read and written wholesale, with an atomic rename and a .bak of
// the previous contents on every write.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"picktrack/tracking/internal/models"
	"picktrack/tracking/internal/pickstore"

	"github.com/rs/zerolog/log"
)

// trackingFile is the on-disk schema for one model's picks
type trackingFile struct {
	Model     string         `json:"model"`
	UpdatedAt time.Time      `json:"updated_at"`
	Picks     []*models.Pick `json:"picks"`
}

// Store is a directory of per-model tracking files
type Store struct {
	dir string

	mu    sync.Mutex
	index map[string]string // pick id -> model
}

// Open opens (or creates) the tracking directory and builds the id index
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create tracking dir: %w", err)
	}

	s := &Store{
		dir:   dir,
		index: make(map[string]string),
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan tracking dir: %w", err)
	}

	for _, path := range files {
		tf, err := readFile(path)
		if err != nil {
			return nil, err
		}
		for _, pick := range tf.Picks {
			if other, ok := s.index[pick.ID]; ok {
				return nil, fmt.Errorf("pick id %s appears in both %s and %s", pick.ID, other, tf.Model)
			}
			s.index[pick.ID] = tf.Model
		}
	}

	log.Info().
		Str("dir", dir).
		Int("files", len(files)).
		Int("picks", len(s.index)).
		Msg("Tracking directory opened")

	return s, nil
}

// Create appends a new pending pick to its model's tracking file
func (s *Store) Create(ctx context.Context, pick *models.Pick) error {
	if err := pick.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[pick.ID]; ok {
		return fmt.Errorf("pick %s: %w", pick.ID, pickstore.ErrDuplicate)
	}

	tf, err := s.load(pick.Model)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	pick.Status = models.StatusPending
	pick.CreatedAt = now
	pick.UpdatedAt = now
	tf.Picks = append(tf.Picks, pick)

	if err := s.write(tf); err != nil {
		return err
	}

	s.index[pick.ID] = pick.Model

	log.Debug().
		Str("id", pick.ID).
		Str("model", pick.Model).
		Str("subject", pick.Subject).
		Msg("Pick created")

	return nil
}

// GetByID retrieves a pick by its id
func (s *Store) GetByID(ctx context.Context, id string) (*models.Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pick, _, _, err := s.find(id)
	if err != nil {
		return nil, err
	}
	clone := *pick
	return &clone, nil
}

// ListPending returns pending picks with an event time before the cutoff
func (s *Store) ListPending(ctx context.Context, before time.Time) ([]*models.Pick, error) {
	return s.list(func(p *models.Pick) bool {
		return p.Status == models.StatusPending && p.EventTime.Before(before)
	})
}

// ListByModel returns all picks recorded by one model
func (s *Store) ListByModel(ctx context.Context, model string) ([]*models.Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tf, err := s.load(model)
	if err != nil {
		return nil, err
	}

	picks := make([]*models.Pick, 0, len(tf.Picks))
	for _, p := range tf.Picks {
		clone := *p
		picks = append(picks, &clone)
	}
	sortByEventTime(picks)
	return picks, nil
}

// ListTerminal returns all settled picks across every model
func (s *Store) ListTerminal(ctx context.Context) ([]*models.Pick, error) {
	return s.list(func(p *models.Pick) bool { return p.Terminal() })
}

// Settle applies a settlement to a pending pick; already-terminal picks
// are left untouched and reported as not applied
func (s *Store) Settle(ctx context.Context, id string, settlement models.Settlement) (bool, error) {
	if !models.TerminalStatus(settlement.Status) {
		return false, fmt.Errorf("settlement status %q is not terminal", settlement.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pick, tf, _, err := s.find(id)
	if err != nil {
		return false, err
	}

	if pick.Terminal() {
		log.Debug().
			Str("id", id).
			Str("status", pick.Status).
			Msg("Pick already settled, skipping")
		return false, nil
	}

	applySettlement(pick, settlement)

	if err := s.write(tf); err != nil {
		return false, err
	}

	log.Debug().
		Str("id", id).
		Str("status", settlement.Status).
		Float64("profit_loss", settlement.ProfitLoss).
		Msg("Pick settled")

	return true, nil
}

// Correct overwrites a pick's settlement regardless of current state.
// A pending status re-opens the pick and clears its settlement fields.
func (s *Store) Correct(ctx context.Context, id string, settlement models.Settlement) error {
	if settlement.Status != models.StatusPending && !models.TerminalStatus(settlement.Status) {
		return fmt.Errorf("invalid correction status %q", settlement.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pick, tf, _, err := s.find(id)
	if err != nil {
		return err
	}

	if settlement.Status == models.StatusPending {
		pick.Status = models.StatusPending
		pick.ObservedValue = nil
		pick.ProfitLoss = nil
		pick.GradedAt = nil
		settledBy := settlement.SettledBy
		pick.SettledBy = &settledBy
		pick.UpdatedAt = time.Now().UTC()
	} else {
		applySettlement(pick, settlement)
	}

	if err := s.write(tf); err != nil {
		return err
	}

	log.Info().
		Str("id", id).
		Str("status", settlement.Status).
		Str("settled_by", settlement.SettledBy).
		Msg("Pick corrected")

	return nil
}

// CountByStatus returns pick counts grouped by status
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	picks, err := s.list(func(*models.Pick) bool { return true })
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, p := range picks {
		counts[p.Status]++
	}
	return counts, nil
}

// Close is a no-op; every operation flushes to disk
func (s *Store) Close() {}

func applySettlement(pick *models.Pick, s models.Settlement) {
	now := time.Now().UTC()
	pick.Status = s.Status
	pick.ObservedValue = s.ObservedValue
	pl := s.ProfitLoss
	pick.ProfitLoss = &pl
	pick.GradedAt = &now
	settledBy := s.SettledBy
	pick.SettledBy = &settledBy
	pick.UpdatedAt = now
}

func (s *Store) list(keep func(*models.Pick) bool) ([]*models.Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	var picks []*models.Pick
	for _, model := range s.index {
		if _, ok := seen[model]; ok {
			continue
		}
		seen[model] = struct{}{}

		tf, err := s.load(model)
		if err != nil {
			return nil, err
		}
		for _, p := range tf.Picks {
			if keep(p) {
				clone := *p
				picks = append(picks, &clone)
			}
		}
	}

	sortByEventTime(picks)
	return picks, nil
}

// find returns the live pick, its tracking file, and its model.
// Caller must hold the lock and write the file back after mutating.
func (s *Store) find(id string) (*models.Pick, *trackingFile, string, error) {
	model, ok := s.index[id]
	if !ok {
		return nil, nil, "", fmt.Errorf("pick %s: %w", id, pickstore.ErrNotFound)
	}

	tf, err := s.load(model)
	if err != nil {
		return nil, nil, "", err
	}

	for _, p := range tf.Picks {
		if p.ID == id {
			return p, tf, model, nil
		}
	}

	// Index said the pick exists but the file disagrees; the file on
	// disk wins.
	delete(s.index, id)
	return nil, nil, "", fmt.Errorf("pick %s: %w", id, pickstore.ErrNotFound)
}

func (s *Store) load(model string) (*trackingFile, error) {
	path := s.path(model)
	tf, err := readFile(path)
	if os.IsNotExist(err) {
		return &trackingFile{Model: model}, nil
	}
	if err != nil {
		return nil, err
	}
	return tf, nil
}

func readFile(path string) (*trackingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tf trackingFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse tracking file %s: %w", path, err)
	}
	if tf.Model == "" {
		tf.Model = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return &tf, nil
}

// write persists a tracking file atomically, keeping the previous
// contents as a .bak
func (s *Store) write(tf *trackingFile) error {
	tf.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tracking file: %w", err)
	}

	path := s.path(tf.Model)

	if prev, err := os.ReadFile(path); err == nil {
		if err := os.WriteFile(path+".bak", prev, 0o644); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to write tracking backup")
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write tracking file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace tracking file: %w", err)
	}

	return nil
}

func (s *Store) path(model string) string {
	name := strings.ToLower(model)
	name = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, name)
	return filepath.Join(s.dir, name+".json")
}

func sortByEventTime(picks []*models.Pick) {
	sort.Slice(picks, func(i, j int) bool {
		if picks[i].EventTime.Equal(picks[j].EventTime) {
			return picks[i].ID < picks[j].ID
		}
		return picks[i].EventTime.Before(picks[j].EventTime)
	})
}
