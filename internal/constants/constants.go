package constants

import "time"

// Session and context keys
const (
	ContextKeyUserID      = "user_id"
	ContextKeyCurrentUser = "current_user"
	ContextKeyPlaylist    = "playlist"
	SessionCookieName     = "soundshare_session"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Account rules
const (
	MinPasswordLength = 8
	MinLoginLength    = 3
	MaxLoginLength    = 40
)

// Comments
const (
	MaxCommentLength = 2000
)

// Cascade defaults
const (
	DefaultCascadeRetryAttempts = 3
	DefaultCascadeRetryDelay    = 200 * time.Millisecond
	DefaultLockTTL              = 2 * time.Minute
)
