package utils

import (
	"time"
)

// Request context keys
type contextKey string

const (
	RequestIDKey  contextKey = "request_id"
	UserAgentKey  contextKey = "user_agent"
	IPAddressKey  contextKey = "ip_address"
	EndpointKey   contextKey = "endpoint"
	TimeoutKey    contextKey = "timeout"
	CancelFuncKey contextKey = "cancel_func"
)

// Cache and lock constants
const (
	// StyleCacheKeyPrefix prefixes cached publication styles
	StyleCacheKeyPrefix = "publication_style:"

	// IssueSendLockPrefix prefixes the per-issue send lock
	IssueSendLockPrefix = "issue_send_lock:"

	// IssueSendLockTTL bounds how long a crashed sender can hold the lock
	IssueSendLockTTL = 5 * time.Minute
)

// Rendering constants
const (
	// DefaultRequestTimeout is applied to handler contexts
	DefaultRequestTimeout = 10 * time.Second

	// CORSMaxAge is the preflight cache duration in seconds
	CORSMaxAge = 86400

	// ShortLinkUIDLength is the number of characters in a generated short link token
	ShortLinkUIDLength = 10
)
