package service

import "errors"

// Service-level failures. The HTTP layer maps these onto status codes next
// to the lifecycle sentinels.
var (
	// ErrInvalidInput rejects a request failing field validation. Wrapped
	// with detail at each call site.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotAdmin rejects a group-management action from a non-admin member.
	ErrNotAdmin = errors.New("caller is not a group admin")

	// ErrGroupFull rejects a join once max_members is reached.
	ErrGroupFull = errors.New("group is full")

	// ErrAlreadyMember rejects a second join by the same user.
	ErrAlreadyMember = errors.New("user is already a member")

	// ErrLastAdmin protects the invariant that a live group always keeps at
	// least one admin membership.
	ErrLastAdmin = errors.New("group must retain at least one admin")
)
