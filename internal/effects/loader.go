package effects

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"tilefx/internal/prompt"
)

var (
	ErrNoEffects      = errors.New("no valid effect files found")
	ErrNoEffectChosen = errors.New("no effect chosen")
	ErrUnknownEffect  = errors.New("unknown effect")
)

var extensions = map[string]bool{
	".yaml": true,
	".yml":  true,
}

// Set maps effect names to validated effects.
type Set map[string]Effect

// Names returns the effect names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads every effect file directly inside dir. Invalid candidates are
// left out, with the reason logged at debug level; only an empty result is
// an error.
func Load(dir string, logger *slog.Logger) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read effects path [%s]: %w", dir, err)
	}

	set := make(Set)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		name := strings.TrimSuffix(entry.Name(), ext)
		if name == "" || !extensions[strings.ToLower(ext)] {
			continue
		}
		effect, err := loadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Debug("skipping effect file", "file", entry.Name(), "error", err)
			continue
		}
		set[name] = effect
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("%w in [%s]", ErrNoEffects, dir)
	}
	return set, nil
}

func loadFile(path string) (Effect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	return Build(def)
}

// Check fails if choice is set and names no effect in s.
func (s Set) Check(choice string) error {
	if choice == "" {
		return nil
	}
	if _, ok := s[choice]; !ok {
		return fmt.Errorf("%w %q, choose from: %s", ErrUnknownEffect, choice, strings.Join(s.Names(), ", "))
	}
	return nil
}

// Choose picks the effect to run: the named choice if given, the only
// effect if there is one, otherwise whatever the operator selects.
func (s Set) Choose(choice string, selector prompt.Selector) (string, Effect, error) {
	if choice != "" {
		if err := s.Check(choice); err != nil {
			return "", nil, err
		}
		return choice, s[choice], nil
	}

	names := s.Names()
	if len(names) == 1 {
		return names[0], s[names[0]], nil
	}

	selected, err := selector.Select("Choose an effect", names)
	if err != nil {
		return "", nil, ErrNoEffectChosen
	}
	effect, ok := s[selected]
	if !ok {
		return "", nil, ErrNoEffectChosen
	}
	return selected, effect, nil
}
