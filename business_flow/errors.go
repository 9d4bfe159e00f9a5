// Package businessflow contains the selection, composition and send workflows of the issue composer
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Module and item errors
	ErrModuleNotFound    = errors.New("module not found")
	ErrModuleInactive    = errors.New("module is inactive")
	ErrItemNotFound      = errors.New("item not found")
	ErrItemNotEligible   = errors.New("item is not eligible for this module")
	ErrUnknownFamily     = errors.New("unknown module family")
	ErrInvalidBlockOrder = errors.New("invalid block order")

	// Issue errors
	ErrIssueNotFound     = errors.New("issue not found")
	ErrIssueAlreadySent  = errors.New("issue already sent")
	ErrSendInProgress    = errors.New("issue send already in progress")
	ErrSelectionLocked   = errors.New("selection is locked after usage was recorded")
	ErrInvalidRenderMode = errors.New("invalid render mode")

	// Short link errors
	ErrShortLinkNotFound = errors.New("short link not found")

	// Collaborator errors
	ErrCacheNotAvailable    = errors.New("cache not available")
	ErrTextGeneratorMissing = errors.New("text generator not configured")
	ErrTextBoxNotGenerated  = errors.New("text box does not use generated content")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsModuleNotFound(err error) bool {
	return errors.Is(err, ErrModuleNotFound)
}

func IsModuleInactive(err error) bool {
	return errors.Is(err, ErrModuleInactive)
}

func IsItemNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}

func IsItemNotEligible(err error) bool {
	return errors.Is(err, ErrItemNotEligible)
}

func IsUnknownFamily(err error) bool {
	return errors.Is(err, ErrUnknownFamily)
}

func IsInvalidBlockOrder(err error) bool {
	return errors.Is(err, ErrInvalidBlockOrder)
}

func IsIssueNotFound(err error) bool {
	return errors.Is(err, ErrIssueNotFound)
}

func IsIssueAlreadySent(err error) bool {
	return errors.Is(err, ErrIssueAlreadySent)
}

func IsSendInProgress(err error) bool {
	return errors.Is(err, ErrSendInProgress)
}

func IsSelectionLocked(err error) bool {
	return errors.Is(err, ErrSelectionLocked)
}

func IsInvalidRenderMode(err error) bool {
	return errors.Is(err, ErrInvalidRenderMode)
}

func IsShortLinkNotFound(err error) bool {
	return errors.Is(err, ErrShortLinkNotFound)
}

func IsTextBoxNotGenerated(err error) bool {
	return errors.Is(err, ErrTextBoxNotGenerated)
}

func IsBusinessError(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}
