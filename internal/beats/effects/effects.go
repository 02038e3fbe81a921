// SPDX-License-Identifier: MIT

// Package effects implements the beat effects and the registry that loads
// them from client-supplied JSON.
package effects

import (
	"encoding/json"
	"fmt"
)

// Effect rearranges or mutates the list of beat segments. Segments are
// interleaved s16le samples; channels is needed by frame-aware effects.
// Implementations must not mutate the input segments in place.
type Effect interface {
	Name() string
	Apply(segments [][]int16, channels int) [][]int16
}

// validator is implemented by effects with parameter constraints.
type validator interface {
	Validate() error
}

var registry = map[string]func() Effect{
	"swap":      func() Effect { return &Swap{} },
	"remove":    func() Effect { return &Remove{} },
	"silence":   func() Effect { return &Silence{} },
	"cut":       func() Effect { return &Cut{} },
	"repeat":    func() Effect { return &Repeat{} },
	"reverse":   func() Effect { return &Reverse{} },
	"randomize": func() Effect { return &Randomize{} },
}

// Load builds a single effect from its JSON object form
// {"type": "remove", "period": 2}.
func Load(raw json.RawMessage) (Effect, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("effect is not an object: %w", err)
	}
	factory, ok := registry[head.Type]
	if !ok {
		return nil, fmt.Errorf("unknown effect type %q", head.Type)
	}
	e := factory()
	if err := json.Unmarshal(raw, e); err != nil {
		return nil, fmt.Errorf("effect %q: %w", head.Type, err)
	}
	if v, ok := e.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("effect %q: %w", head.Type, err)
		}
	}
	return e, nil
}

// LoadAll builds an effect chain from a JSON array of effect objects.
func LoadAll(raws []json.RawMessage) ([]Effect, error) {
	out := make([]Effect, 0, len(raws))
	for i, raw := range raws {
		e, err := Load(raw)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// isNth reports whether the 0-based index i falls on every period-th beat.
// Period 1 selects every beat.
func isNth(i, period int) bool {
	return (i+1)%period == 0
}
