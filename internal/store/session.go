package store

import "errors"

var ErrAuthRequired = errors.New("authentication required")

// Session marks an authenticated shopper. Only the fields the storefront needs are kept,
// whatever the auth provider returns.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// RequireSession is the access gate in front of every cart and wishlist mutation.
// It only checks presence; prompting the user to sign in is the caller's job.
func RequireSession(s *Session) error {
	if s == nil || s.UserID == "" {
		return ErrAuthRequired
	}
	return nil
}
