package database

import "errors"

var (
	// ErrNotFound means the guild (or message) has no row.
	ErrNotFound = errors.New("database: not found")
	// ErrRoleNotPresent means the role was not in the guild's assignable list.
	ErrRoleNotPresent = errors.New("database: role not in assignable list")
	// ErrDuplicateModAction means the (server, mod, target, action) entry
	// already exists. Callers treat this as benign.
	ErrDuplicateModAction = errors.New("database: moderation action already logged")
	// ErrPrefixTooLong means the prefix exceeds two characters.
	ErrPrefixTooLong = errors.New("database: prefix longer than two characters")
	// ErrUnimplemented marks stub operations that persist nothing yet.
	ErrUnimplemented = errors.New("database: not implemented")
)
