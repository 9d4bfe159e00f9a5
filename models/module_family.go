// Package models contains domain entities and business models for the issue composition engine
package models

import (
	"database/sql/driver"
	"fmt"
)

// ModuleFamily identifies which kind of content module a section belongs to
type ModuleFamily string

const (
	ModuleFamilyAd       ModuleFamily = "ad"
	ModuleFamilyPoll     ModuleFamily = "poll"
	ModuleFamilyPrompt   ModuleFamily = "prompt"
	ModuleFamilyFeedback ModuleFamily = "feedback"
	ModuleFamilyTextBox  ModuleFamily = "text_box"
)

// ModuleFamilies lists every family in the order sections of equal display order are emitted
func ModuleFamilies() []ModuleFamily {
	return []ModuleFamily{
		ModuleFamilyTextBox,
		ModuleFamilyPrompt,
		ModuleFamilyPoll,
		ModuleFamilyAd,
		ModuleFamilyFeedback,
	}
}

// Rank returns the tie-break position of the family when two sections share a display order
func (f ModuleFamily) Rank() int {
	for i, family := range ModuleFamilies() {
		if family == f {
			return i
		}
	}
	return len(ModuleFamilies())
}

// String returns the string representation of the family
func (f ModuleFamily) String() string {
	return string(f)
}

// Valid checks if the family is known
func (f ModuleFamily) Valid() bool {
	switch f {
	case ModuleFamilyAd, ModuleFamilyPoll, ModuleFamilyPrompt,
		ModuleFamilyFeedback, ModuleFamilyTextBox:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ModuleFamily
func (f *ModuleFamily) Scan(value any) error {
	if value == nil {
		*f = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*f = ModuleFamily(v)
	case []byte:
		*f = ModuleFamily(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ModuleFamily", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ModuleFamily
func (f ModuleFamily) Value() (driver.Value, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid ModuleFamily: %s", f)
	}
	return string(f), nil
}
