package domain

import (
	"errors"
	"strings"
)

var errMissingUserID = errors.New("missing user id")

const (
	DemoUserID    = "00000000-0000-0000-0000-000000000000"
	DemoUserEmail = "demo@example.com"
	DemoUserName  = "Demo User"
)

// Principal is the identity on whose behalf a pipeline stage runs.
type Principal struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func DemoPrincipal() Principal {
	return Principal{UserID: DemoUserID, Email: DemoUserEmail, FullName: DemoUserName}
}

func (p Principal) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return WrapError(ErrUnauthorized, "principal", errMissingUserID)
	}
	return nil
}
