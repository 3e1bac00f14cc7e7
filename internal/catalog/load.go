package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Overlay file names read by LoadDir.
const (
	UnitsFile  = "units.json"
	CardsFile  = "cards.json"
	GhostsFile = "ghosts.json"
	EventsFile = "events.json"
	RelicsFile = "relics.json"
)

// ErrInvalidEntry is returned when an overlay entry is missing its id.
var ErrInvalidEntry = errors.New("catalog entry has no id")

// LoadDir builds a catalog from the built-in data plus any JSON overlays found
// in dir. Each overlay is a JSON array; entries replace built-ins with the same
// id and new ids are appended. A missing file keeps the built-ins, a malformed
// one fails the whole load.
func LoadDir(fsys afero.Fs, dir string) (*Catalog, error) {
	units, err := overlay(fsys, filepath.Join(dir, UnitsFile), builtinUnits, func(u Unit) string { return u.ID })
	if err != nil {
		return nil, err
	}
	cards, err := overlay(fsys, filepath.Join(dir, CardsFile), builtinCards, func(c Card) string { return c.ID })
	if err != nil {
		return nil, err
	}
	ghosts, err := overlay(fsys, filepath.Join(dir, GhostsFile), builtinGhosts, func(g Ghost) string { return g.ID })
	if err != nil {
		return nil, err
	}
	events, err := overlay(fsys, filepath.Join(dir, EventsFile), builtinEvents, func(e RealmEvent) string { return e.ID })
	if err != nil {
		return nil, err
	}
	relics, err := overlay(fsys, filepath.Join(dir, RelicsFile), builtinRelics, func(r Relic) string { return r.ID })
	if err != nil {
		return nil, err
	}
	return New(units, cards, ghosts, events, relics), nil
}

func overlay[T any](fsys afero.Fs, path string, base []T, id func(T) string) ([]T, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, os.ErrNotExist) {
		return base, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var extra []T
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]T, len(base), len(base)+len(extra))
	copy(out, base)
	index := make(map[string]int, len(out))
	for i, v := range out {
		index[id(v)] = i
	}
	for i, v := range extra {
		key := id(v)
		if key == "" {
			return nil, fmt.Errorf("%s entry %d: %w", path, i, ErrInvalidEntry)
		}
		if at, ok := index[key]; ok {
			out[at] = v
			continue
		}
		index[key] = len(out)
		out = append(out, v)
	}
	return out, nil
}
