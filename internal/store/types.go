package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no upload is stored for a role.
	ErrNotFound = errors.New("dataset not found")
	// ErrInvalidRole is returned for a role other than maps or reservations.
	ErrInvalidRole = errors.New("invalid dataset role")
)

// Role names one of the two raw datasets.
type Role string

const (
	RoleMaps         Role = "maps"
	RoleReservations Role = "reservations"
)

// Roles lists every valid role.
var Roles = []Role{RoleMaps, RoleReservations}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleMaps, RoleReservations:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// SourceType records how an upload reached the store.
type SourceType string

const (
	SourceUpload SourceType = "upload"
	SourceIngest SourceType = "ingest"
)

// Upload is one raw dataset to store.
type Upload struct {
	Role     Role
	FileName string
	Source   SourceType
	Content  string
	RowCount int
}
