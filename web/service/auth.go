package service

import "github.com/quillpress/blog/database/model"

// Decision is the outcome of an access policy.
type Decision int

const (
	Allowed Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// AdminOnly admits only administrators.
func AdminOnly(user *model.User) Decision {
	if user == nil {
		return Unauthenticated
	}
	if !user.IsAdmin() {
		return Forbidden
	}
	return Allowed
}

func LoginRequired(user *model.User) Decision {
	if user == nil {
		return Unauthenticated
	}
	return Allowed
}
