package models

import (
	"database/sql/driver"
	"fmt"
)

// SelectionMode is the rule governing automatic picks for a module
type SelectionMode string

const (
	SelectionModeSequential SelectionMode = "sequential"
	SelectionModeRandom     SelectionMode = "random"
	SelectionModePriority   SelectionMode = "priority"
	SelectionModeManual     SelectionMode = "manual"
	// SelectionModeDefault is used by families without rotation (ads, feedback, text boxes)
	SelectionModeDefault SelectionMode = "default"
)

// String returns the string representation of the mode
func (m SelectionMode) String() string {
	return string(m)
}

// Valid checks if the mode is valid
func (m SelectionMode) Valid() bool {
	switch m {
	case SelectionModeSequential, SelectionModeRandom, SelectionModePriority,
		SelectionModeManual, SelectionModeDefault:
		return true
	default:
		return false
	}
}

// IsAutomatic reports whether the engine picks an item without an editor
func (m SelectionMode) IsAutomatic() bool {
	return m.Valid() && m != SelectionModeManual
}

// Scan implements the sql.Scanner interface for SelectionMode
func (m *SelectionMode) Scan(value any) error {
	if value == nil {
		*m = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*m = SelectionMode(v)
	case []byte:
		*m = SelectionMode(string(v))
	default:
		return fmt.Errorf("cannot scan %T into SelectionMode", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for SelectionMode
func (m SelectionMode) Value() (driver.Value, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid SelectionMode: %s", m)
	}
	return string(m), nil
}
