// Package persist serialises the whole finance state into one versioned
// record and restores it on start, falling back to the built-in dataset when
// the record is missing or unreadable.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// CurrentVersion is written into every envelope. Version 0 is the legacy
// layout: either {"state": {...}, "version": 0} or the bare state object.
const CurrentVersion = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported state version")
	ErrMalformed          = errors.New("malformed state record")
)

type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// migration upgrades the raw state of version n to version n+1.
type migration func(raw json.RawMessage) (json.RawMessage, error)

var migrations = map[int]migration{
	// The legacy layout already used today's field names; only the envelope
	// changed, so the state passes through untouched.
	0: func(raw json.RawMessage) (json.RawMessage, error) { return raw, nil },
}

// Encode wraps state in a current-version envelope.
func Encode(state core.State) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return json.Marshal(envelope{Version: CurrentVersion, State: raw})
}

// Decode reads any supported envelope version, runs the migrations up to
// CurrentVersion and merges the stored top-level fields over the defaults
// for now.
func Decode(data []byte, now time.Time) (core.State, error) {
	version, raw, err := unwrap(data)
	if err != nil {
		return core.State{}, err
	}
	if version > CurrentVersion || version < 0 {
		return core.State{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	for v := version; v < CurrentVersion; v++ {
		m, ok := migrations[v]
		if !ok {
			return core.State{}, fmt.Errorf("%w: no migration from %d", ErrUnsupportedVersion, v)
		}
		if raw, err = m(raw); err != nil {
			return core.State{}, fmt.Errorf("migrate from version %d: %w", v, err)
		}
	}
	return merge(raw, now)
}

func unwrap(data []byte) (int, json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if top == nil {
		return 0, nil, fmt.Errorf("%w: null record", ErrMalformed)
	}

	rawVersion, hasVersion := top["version"]
	rawState, hasState := top["state"]
	if !hasVersion && !hasState {
		// Bare legacy state object.
		return 0, json.RawMessage(data), nil
	}
	if !hasState {
		return 0, nil, fmt.Errorf("%w: envelope without state", ErrMalformed)
	}

	version := 0
	if hasVersion {
		if err := json.Unmarshal(rawVersion, &version); err != nil {
			return 0, nil, fmt.Errorf("%w: version: %v", ErrMalformed, err)
		}
	}
	return version, rawState, nil
}

// merge overlays the keys present in raw onto the defaults for now. A key
// holding an explicit null clears the field, so a state saved with empty
// collections reloads empty instead of reseeded.
func merge(raw json.RawMessage, now time.Time) (core.State, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return core.State{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	state := core.DefaultState(now)
	err := errors.Join(
		overlay(fields, "transactions", &state.Transactions),
		overlay(fields, "budgets", &state.Budgets),
		overlay(fields, "goals", &state.Goals),
		overlay(fields, "currentMonth", &state.CurrentMonth),
		mergeSettings(fields["settings"], &state.Settings),
	)
	if err != nil {
		return core.State{}, err
	}
	return state, nil
}

// mergeSettings applies the stored settings key by key over the defaults.
// A missing or null settings object keeps the defaults whole.
func mergeSettings(raw json.RawMessage, dst *core.Settings) error {
	var fields map[string]json.RawMessage
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("%w: settings: %v", ErrMalformed, err)
		}
	}
	return errors.Join(
		overlay(fields, "currency", &dst.Currency),
		overlay(fields, "theme", &dst.Theme),
		overlay(fields, "categories", &dst.Categories),
		overlay(fields, "tags", &dst.Tags),
		overlay(fields, "notifications", &dst.Notifications),
	)
}

func overlay[T any](fields map[string]json.RawMessage, key string, dst *T) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	*dst = v
	return nil
}
