package model

// UserID is the opaque identity of a market participant. The hosting
// environment authenticates callers; the registry only ever compares
// identities for equality.
type UserID string

// NoFreelancer is the sentinel for a task nobody accepted yet.
const NoFreelancer UserID = ""

type User interface {
	ID() UserID
	DisplayName() string
	Roles() []string
}

type BaseUser struct {
	id          UserID
	displayName string
	roles       []string
}

// ID implements User.
func (u *BaseUser) ID() UserID {
	return u.id
}

// DisplayName implements User.
func (u *BaseUser) DisplayName() string {
	return u.displayName
}

// Roles implements User.
func (u *BaseUser) Roles() []string {
	return u.roles
}

var _ User = &BaseUser{}

func NewReadOnlyUser(id UserID, displayName string, roles ...string) *BaseUser {
	return &BaseUser{
		id:          id,
		displayName: displayName,
		roles:       roles,
	}
}

func UserString(u User) string {
	if u == nil {
		return "<anonymous>"
	}

	return string(u.ID())
}
