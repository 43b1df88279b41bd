// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package phase

import (
	"errors"
	"strings"
)

// ErrInvalidPhase is returned when text cannot be parsed into a Phase
var ErrInvalidPhase = errors.New("invalid traffic light phase")

// Phase is the color a traffic light is currently showing.  The zero value is Red.
type Phase uint32

const (
	Red Phase = iota
	Green
)

const (
	redText   = "red"
	greenText = "green"
)

// IsValid tests if this Phase is one of the defined constants
func (p Phase) IsValid() bool {
	return p == Red || p == Green
}

// Toggle returns the opposite phase.  Red becomes Green, and anything else becomes Red.
func (p Phase) Toggle() Phase {
	if p == Red {
		return Green
	}

	return Red
}

func (p Phase) String() string {
	switch p {
	case Red:
		return redText
	case Green:
		return greenText
	default:
		return "invalid"
	}
}

// Parse converts text into a Phase.  Parsing is case-insensitive and ignores surrounding whitespace.
func Parse(v string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case redText:
		return Red, nil
	case greenText:
		return Green, nil
	default:
		return Red, ErrInvalidPhase
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, ErrInvalidPhase
	}

	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*p = parsed
	return nil
}
