// Package view persists named filter presets so a dashboard state can be
// reopened from the CLI or with ?view=<name>.
package view

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/rentdash/internal/filter"
	"github.com/KaramelBytes/rentdash/internal/utils"
)

// ErrNotFound is returned when no view has the requested name.
var ErrNotFound = errors.New("view not found")

const fileExt = ".json"

// View is a saved set of filter criteria.
type View struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Criteria    filter.Criteria `json:"criteria"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// New constructs an in-memory view. Call Store.Save to persist.
func New(name, description string, c filter.Criteria) *View {
	now := time.Now().UTC()
	return &View{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Criteria:    c,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Store keeps one JSON file per view under Dir.
type Store struct {
	Dir string
}

func (s Store) path(name string) (string, error) {
	slug := utils.Slug(name)
	if slug == "" {
		return "", fmt.Errorf("invalid view name %q", name)
	}
	return filepath.Join(s.Dir, slug+fileExt), nil
}

// Save writes v, keeping the ID and creation time of an existing view with
// the same name.
func (s Store) Save(v *View) error {
	p, err := s.path(v.Name)
	if err != nil {
		return err
	}
	if prev, err := s.Load(v.Name); err == nil {
		v.ID, v.CreatedAt = prev.ID, prev.CreatedAt
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.UpdatedAt = time.Now().UTC()
	data, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(p, data)
}

// Load reads the view saved under name.
func (s Store) Load(name string) (*View, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("read view: %w", err)
	}
	var v View
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("parse view %s: %w", filepath.Base(p), err)
	}
	return &v, nil
}

// List returns every saved view sorted by name. A missing directory is empty.
func (s Store) List() ([]*View, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read views dir: %w", err)
	}
	var out []*View
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		v, err := s.Load(strings.TrimSuffix(e.Name(), fileExt))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the view saved under name.
func (s Store) Delete(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return fmt.Errorf("delete view: %w", err)
	}
	return nil
}
