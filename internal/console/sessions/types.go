// Package sessions keeps import wizard sessions in memory between API calls.
package sessions

import (
	"time"

	"github.com/agentregistry-dev/agentconsole/internal/agentimport"
)

// SessionID uniquely identifies an import session.
type SessionID string

// Entry is a stored import session.
type Entry struct {
	ID         SessionID
	Session    *agentimport.Session
	CreatedAt  time.Time
	LastAccess time.Time
}

// Expired reports whether the entry has been idle for longer than ttl.
func (e *Entry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.LastAccess) > ttl
}
