// Package calibration holds per-printer tray corrections applied when cards
// are placed on a sheet.
package calibration

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var defaultProfilesYAML []byte

// ErrNoProfiles is returned when a profile set is empty.
var ErrNoProfiles = errors.New("no calibration profiles")

// ErrProfileNotFound is returned by Find for unknown keys.
var ErrProfileNotFound = errors.New("calibration profile not found")

// Profile is a printer calibration. Offsets are millimetres; scales are
// multipliers of the card size.
type Profile struct {
	ID           string  `yaml:"id" json:"id"`
	Name         string  `yaml:"name" json:"name"`
	OffsetX      float64 `yaml:"offsetX" json:"offsetX"`
	OffsetY      float64 `yaml:"offsetY" json:"offsetY"`
	Slot2YOffset float64 `yaml:"slot2YOffset" json:"slot2YOffset"`
	ScaleX       float64 `yaml:"scaleX" json:"scaleX"`
	ScaleY       float64 `yaml:"scaleY" json:"scaleY"`
	IsDefault    bool    `yaml:"default" json:"isDefault"`
}

// profileFields has Profile's fields without its decoding methods.
type profileFields Profile

// UnmarshalJSON decodes a profile. Omitted scales default to 1; an explicit
// zero is kept so Validate rejects it.
func (p *Profile) UnmarshalJSON(data []byte) error {
	raw := profileFields{ScaleX: 1, ScaleY: 1}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Profile(raw)
	return nil
}

// UnmarshalYAML decodes a profile with the same scale defaults as
// UnmarshalJSON.
func (p *Profile) UnmarshalYAML(value *yaml.Node) error {
	raw := profileFields{ScaleX: 1, ScaleY: 1}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*p = Profile(raw)
	return nil
}

// Identity is the uncorrected profile.
var Identity = Profile{Name: "Identity", ScaleX: 1, ScaleY: 1}

// ValidationError describes an unusable profile field.
type ValidationError struct {
	Profile string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("profile %q: %s %s", e.Profile, e.Field, e.Reason)
}

// Validate rejects non-finite values and non-positive scales.
func (p Profile) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"offsetX", p.OffsetX},
		{"offsetY", p.OffsetY},
		{"slot2YOffset", p.Slot2YOffset},
		{"scaleX", p.ScaleX},
		{"scaleY", p.ScaleY},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &ValidationError{Profile: p.Name, Field: f.name, Reason: "must be finite"}
		}
	}
	if p.ScaleX <= 0 {
		return &ValidationError{Profile: p.Name, Field: "scaleX", Reason: "must be positive"}
	}
	if p.ScaleY <= 0 {
		return &ValidationError{Profile: p.Name, Field: "scaleY", Reason: "must be positive"}
	}
	return nil
}

// ProfileSet is an ordered list of profiles.
type ProfileSet struct {
	Profiles []Profile `yaml:"profiles" json:"profiles"`
}

// Default returns the profile flagged as default, else the first profile.
func (s *ProfileSet) Default() (Profile, error) {
	if len(s.Profiles) == 0 {
		return Profile{}, ErrNoProfiles
	}
	for _, p := range s.Profiles {
		if p.IsDefault {
			return p, nil
		}
	}
	return s.Profiles[0], nil
}

// Find looks a profile up by ID or case-insensitive name. An empty key
// returns the default profile.
func (s *ProfileSet) Find(key string) (Profile, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.Default()
	}
	for _, p := range s.Profiles {
		if p.ID == key || strings.EqualFold(p.Name, key) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, key)
}

// Normalize assigns missing IDs and makes sure exactly one profile is the
// default.
func (s *ProfileSet) Normalize() {
	defaultSeen := false
	for i := range s.Profiles {
		p := &s.Profiles[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.IsDefault {
			if defaultSeen {
				p.IsDefault = false
			}
			defaultSeen = true
		}
	}
	if !defaultSeen && len(s.Profiles) > 0 {
		s.Profiles[0].IsDefault = true
	}
}

// Clone returns a copy of the set.
func (s *ProfileSet) Clone() *ProfileSet {
	return &ProfileSet{Profiles: append([]Profile(nil), s.Profiles...)}
}

// Validate checks every profile.
func (s *ProfileSet) Validate() error {
	if len(s.Profiles) == 0 {
		return ErrNoProfiles
	}
	for _, p := range s.Profiles {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Upsert replaces the profile with the same ID or appends it. Setting a
// profile as default clears the flag on the others.
func (s *ProfileSet) Upsert(p Profile) Profile {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.IsDefault {
		for i := range s.Profiles {
			s.Profiles[i].IsDefault = false
		}
	}
	for i := range s.Profiles {
		if s.Profiles[i].ID == p.ID {
			s.Profiles[i] = p
			return p
		}
	}
	s.Profiles = append(s.Profiles, p)
	return p
}

// Parse decodes a YAML profile set, normalizes and validates it.
func Parse(data []byte) (*ProfileSet, error) {
	var s ProfileSet
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse calibration profiles: %w", err)
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Defaults returns the built-in profile set.
func Defaults() *ProfileSet {
	s, err := Parse(defaultProfilesYAML)
	if err != nil {
		panic("failed to parse embedded profiles.yaml: " + err.Error())
	}
	return s
}

// LoadFile reads a YAML profile set. An empty path returns Defaults.
func LoadFile(path string) (*ProfileSet, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration profiles: %w", err)
	}
	return Parse(data)
}

// Save writes the profile set as YAML.
func (s *ProfileSet) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode calibration profiles: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write calibration profiles: %w", err)
	}
	return nil
}
