// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// State is the phase of the scanning screen.
type State int

const (
	NotStarted State = iota
	Detecting
	Confirming
	Detected
)

var stateNames = [...]string{
	NotStarted: "not_started",
	Detecting:  "detecting",
	Confirming: "confirming",
	Detected:   "detected",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// ParseState parses the lower-case state name.
func ParseState(v string) (State, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i, name := range stateNames {
		if name == v {
			return State(i), nil
		}
	}
	return NotStarted, fmt.Errorf("unknown workflow state %q", v)
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseState(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
