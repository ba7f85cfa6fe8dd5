package intent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go-silversense/types"

	"gopkg.in/yaml.v3"
)

type fileProfile struct {
	Category  string `yaml:"category"`
	Subtype   string `yaml:"subtype"`
	Urgency   string `yaml:"urgency"`
	Sentiment string `yaml:"sentiment"`
}

type fileTable struct {
	Patterns []Pattern             `yaml:"patterns"`
	Profiles map[string]fileProfile `yaml:"profiles"`
}

// LoadFile reads a YAML keyword table. An empty path returns the built-in
// table. Profiles missing from the file fall back to the built-in profile
// for that intent.
func LoadFile(path string) (*Rules, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent rules: %w", err)
	}
	return Parse(data)
}

// Parse builds a Rules table from YAML bytes.
func Parse(data []byte) (*Rules, error) {
	var ft fileTable
	if err := yaml.Unmarshal(data, &ft); err != nil {
		return nil, fmt.Errorf("parse intent rules: %w", err)
	}
	if len(ft.Patterns) == 0 {
		return nil, errors.New("intent rules: no patterns")
	}

	seen := make(map[Intent]bool, len(ft.Patterns))
	profiles := make(map[Intent]Profile, len(ft.Patterns))
	for i, p := range ft.Patterns {
		if p.Intent == "" || p.Intent == Unknown {
			return nil, fmt.Errorf("intent rules: pattern %d has no usable intent", i)
		}
		if seen[p.Intent] {
			return nil, fmt.Errorf("intent rules: duplicate intent %q", p.Intent)
		}
		seen[p.Intent] = true
		if prof, ok := defaultProfiles[p.Intent]; ok {
			profiles[p.Intent] = prof
		}
	}

	for name, fp := range ft.Profiles {
		cat, err := types.ParseCategory(fp.Category)
		if err != nil {
			return nil, fmt.Errorf("intent rules: profile %q: %w", name, err)
		}
		urg, err := types.ParseUrgency(fp.Urgency)
		if err != nil {
			return nil, fmt.Errorf("intent rules: profile %q: %w", name, err)
		}
		if fp.Subtype != "" && cat == "" {
			return nil, fmt.Errorf("intent rules: profile %q: %w", name, types.ErrOrphanSubtype)
		}
		profiles[Intent(name)] = Profile{
			Category:  cat,
			Subtype:   types.Subtype(fp.Subtype),
			Urgency:   urg,
			Sentiment: fp.Sentiment,
		}
	}

	return New(ft.Patterns, profiles), nil
}

// CoerceText turns any JSON transcript value into text. Strings are
// unquoted, null becomes "", anything else keeps its literal JSON form.
func CoerceText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
