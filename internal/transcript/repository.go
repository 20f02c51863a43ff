package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"p4nett/internal/serrors"
)

// Repository keeps records as <id>.json files in a directory.
type Repository struct {
	dir string
}

func NewRepository(dir string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	return &Repository{dir: dir}, nil
}

func (r *Repository) Dir() string {
	return r.dir
}

func (r *Repository) Save(rec *Record) error {
	// Generate ID if not present
	if rec.ID == "" {
		id, err := GenerateID()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		rec.ID = id
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	if err := os.WriteFile(r.path(rec.ID), data, 0644); err != nil {
		return fmt.Errorf("write record %s: %w", rec.ID, err)
	}
	return nil
}

func (r *Repository) FindByID(id string) (*Record, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serrors.Join(serrors.ErrLookup, err, "record", id)
		}
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	return &rec, nil
}

// List returns all readable records, grouped by run with the oldest run
// first and each run in programming order.
func (r *Repository) List() ([]*Record, error) {
	files, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}

	var recs []*Record
	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}
		rec, err := r.FindByID(strings.TrimSuffix(file.Name(), ".json"))
		if err == nil {
			recs = append(recs, rec)
		}
	}
	runStart := map[string]time.Time{}
	for _, rec := range recs {
		if start, ok := runStart[rec.Run]; !ok || rec.CreatedAt.Before(start) {
			runStart[rec.Run] = rec.CreatedAt
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Run != b.Run {
			sa, sb := runStart[a.Run], runStart[b.Run]
			if !sa.Equal(sb) {
				return sa.Before(sb)
			}
			return a.Run < b.Run
		}
		return a.Seq < b.Seq
	})
	return recs, nil
}

// FindByRun returns the records of one install run in programming order.
func (r *Repository) FindByRun(run string) ([]*Record, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}
	var recs []*Record
	for _, rec := range all {
		if rec.Run == run {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (r *Repository) Delete(id string) error {
	return os.Remove(r.path(id))
}

func (r *Repository) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}
