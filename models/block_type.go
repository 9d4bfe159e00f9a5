package models

import (
	"errors"
	"fmt"
)

// BlockType is the closed set of renderable units a module is composed of
type BlockType uint8

const (
	BlockTitle BlockType = iota + 1
	BlockImage
	BlockBody
	BlockButton
	BlockQuestion
	BlockOptions
	BlockLabel
)

var blockTypeNames = [...]string{
	BlockTitle:    "title",
	BlockImage:    "image",
	BlockBody:     "body",
	BlockButton:   "button",
	BlockQuestion: "question",
	BlockOptions:  "options",
	BlockLabel:    "label",
}

// String returns the configuration name of the block type
func (b BlockType) String() string {
	if !b.Valid() {
		return fmt.Sprintf("BlockType(%d)", uint8(b))
	}
	return blockTypeNames[b]
}

// Valid checks if the block type is one of the declared constants
func (b BlockType) Valid() bool {
	return b >= BlockTitle && int(b) < len(blockTypeNames)
}

// ParseBlockType resolves a configured block name
func ParseBlockType(name string) (BlockType, bool) {
	for i := BlockTitle; int(i) < len(blockTypeNames); i++ {
		if blockTypeNames[i] == name {
			return i, true
		}
	}
	return 0, false
}

// AllowedBlocks returns the block types a family may place in its block order
func AllowedBlocks(family ModuleFamily) []BlockType {
	switch family {
	case ModuleFamilyAd:
		return []BlockType{BlockLabel, BlockTitle, BlockImage, BlockBody, BlockButton}
	case ModuleFamilyPoll:
		return []BlockType{BlockTitle, BlockImage, BlockQuestion, BlockOptions}
	case ModuleFamilyPrompt:
		return []BlockType{BlockTitle, BlockImage, BlockBody, BlockButton}
	case ModuleFamilyFeedback:
		return []BlockType{BlockTitle, BlockBody, BlockQuestion, BlockOptions}
	case ModuleFamilyTextBox:
		return []BlockType{BlockTitle, BlockImage, BlockBody}
	default:
		return nil
	}
}

// DefaultBlockOrder returns the block order new modules of the family start with
func DefaultBlockOrder(family ModuleFamily) []string {
	allowed := AllowedBlocks(family)
	order := make([]string, 0, len(allowed))
	for _, b := range allowed {
		order = append(order, b.String())
	}
	return order
}

// IsBlockAllowed reports whether a block type belongs to the family's allowed set
func IsBlockAllowed(family ModuleFamily, block BlockType) bool {
	for _, b := range AllowedBlocks(family) {
		if b == block {
			return true
		}
	}
	return false
}

// ValidateBlockOrder checks a configured order against the family's allowed set
func ValidateBlockOrder(family ModuleFamily, order []string) error {
	if !family.Valid() {
		return fmt.Errorf("unknown module family %q", family)
	}
	if len(order) == 0 {
		return errors.New("block order must not be empty")
	}

	seen := make(map[BlockType]struct{}, len(order))
	for _, name := range order {
		block, ok := ParseBlockType(name)
		if !ok {
			return fmt.Errorf("unknown block type %q", name)
		}
		if !IsBlockAllowed(family, block) {
			return fmt.Errorf("block type %q is not allowed for %s modules", name, family)
		}
		if _, dup := seen[block]; dup {
			return fmt.Errorf("block type %q appears more than once", name)
		}
		seen[block] = struct{}{}
	}
	return nil
}
