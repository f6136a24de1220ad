package app

import "dailydiet/internal/model"

// Caller is the identity resolved from the current request's credentials
// (bearer token or session cookie). It is passed explicitly into every
// protected operation.
type Caller struct {
	ID   uint
	Role string
}

func (c Caller) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}
