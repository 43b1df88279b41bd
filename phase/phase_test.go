// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package phase

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValue(t *testing.T) {
	var p Phase
	assert.Equal(t, Red, p)
}

func TestToggle(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Green, Red.Toggle())
	assert.Equal(Red, Green.Toggle())
	assert.Equal(Red, Red.Toggle().Toggle())
	assert.Equal(Red, Phase(17).Toggle())
}

func TestString(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("red", Red.String())
	assert.Equal("green", Green.String())
	assert.Equal("invalid", Phase(2).String())
}

func testParseValid(t *testing.T) {
	for text, expected := range map[string]Phase{
		"red":      Red,
		"RED":      Red,
		" Green\t": Green,
		"green":    Green,
	} {
		t.Run(text, func(t *testing.T) {
			actual, err := Parse(text)
			assert.NoError(t, err)
			assert.Equal(t, expected, actual)
		})
	}
}

func testParseInvalid(t *testing.T) {
	for _, text := range []string{"", "yellow", "redd"} {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			assert.ErrorIs(t, err, ErrInvalidPhase)
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("Valid", testParseValid)
	t.Run("Invalid", testParseInvalid)
}

func TestText(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	data, err := json.Marshal(map[string]Phase{"current": Green})
	require.NoError(err)
	assert.JSONEq(`{"current": "green"}`, string(data))

	var decoded map[string]Phase
	require.NoError(json.Unmarshal(data, &decoded))
	assert.Equal(Green, decoded["current"])

	_, err = Phase(5).MarshalText()
	assert.ErrorIs(err, ErrInvalidPhase)

	var p Phase
	assert.Error(p.UnmarshalText([]byte("amber")))
	assert.Equal(Red, p)
}
