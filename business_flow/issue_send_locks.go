package businessflow

import (
	"sync"

	"github.com/google/uuid"
)

// issueSendMutexes guards sends inside one process when no redis client is configured
var issueSendMutexes sync.Map

// tryLockIssueSend returns the unlock func, or false when another send of the issue holds the lock
func tryLockIssueSend(issueID uuid.UUID) (func(), bool) {
	m, _ := issueSendMutexes.LoadOrStore(issueID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, false
	}
	return mu.Unlock, true
}
