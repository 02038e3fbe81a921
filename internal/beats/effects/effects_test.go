// SPDX-License-Identifier: MIT

package effects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKnownTypes(t *testing.T) {
	cases := []struct {
		raw  string
		name string
	}{
		{`{"type":"remove","period":2}`, "remove"},
		{`{"type":"silence","period":1}`, "silence"},
		{`{"type":"repeat","period":2,"times":3}`, "repeat"},
		{`{"type":"cut","period":1,"denominator":4,"take_index":1}`, "cut"},
		{`{"type":"reverse","period":2}`, "reverse"},
		{`{"type":"swap","x_period":2,"y_period":4}`, "swap"},
		{`{"type":"randomize"}`, "randomize"},
	}
	for _, tc := range cases {
		e, err := Load(json.RawMessage(tc.raw))
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.name, e.Name())
	}
}

func TestLoadUnknownType(t *testing.T) {
	_, err := Load(json.RawMessage(`{"type":"vaporize","period":2}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown effect type")
}

func TestLoadInvalidParams(t *testing.T) {
	cases := []string{
		`{"type":"remove","period":0}`,
		`{"type":"repeat","period":1,"times":0}`,
		`{"type":"cut","period":1,"denominator":1}`,
		`{"type":"cut","period":1,"denominator":2,"take_index":2}`,
		`{"type":"swap","x_period":2,"y_period":2}`,
		`{"type":"swap","x_period":0,"y_period":2}`,
		`"not an object"`,
	}
	for _, raw := range cases {
		_, err := Load(json.RawMessage(raw))
		assert.Error(t, err, raw)
	}
}

func TestLoadAll(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"type":"remove","period":2}`),
		json.RawMessage(`{"type":"reverse","period":1}`),
	}
	fx, err := LoadAll(raws)
	require.NoError(t, err)
	require.Len(t, fx, 2)

	raws = append(raws, json.RawMessage(`{"type":"nope"}`))
	_, err = LoadAll(raws)
	assert.ErrorContains(t, err, "effect 2")
}
