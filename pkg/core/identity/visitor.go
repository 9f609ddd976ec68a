package identity

import (
	"github.com/google/uuid"
)

// AnonymousUserID is the actor stored for visitors without an account.
var AnonymousUserID = uuid.Nil.String()

// VisitorInfo identifies the requester behind an event. Empty strings mean "absent".
type VisitorInfo struct {
	IPAddress string `json:"ipAddress"`
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// NewVisitorInfo builds a VisitorInfo with a normalized IP address.
func NewVisitorInfo(ip, userID, sessionID, userAgent, referrer string) VisitorInfo {
	return VisitorInfo{
		IPAddress: NormalizeIP(ip),
		UserID:    userID,
		SessionID: sessionID,
		UserAgent: userAgent,
		Referrer:  referrer,
	}
}

// Normalized returns a copy whose IPAddress is guaranteed canonical.
func (v VisitorInfo) Normalized() VisitorInfo {
	v.IPAddress = NormalizeIP(v.IPAddress)
	return v
}

// IsAnonymous reports whether the visitor has no user id.
func (v VisitorInfo) IsAnonymous() bool {
	return v.UserID == ""
}

// ActorID returns the user id, or AnonymousUserID for anonymous visitors.
func (v VisitorInfo) ActorID() string {
	if v.UserID == "" {
		return AnonymousUserID
	}
	return v.UserID
}
