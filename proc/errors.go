package proc

import "errors"

var (
	// ErrNoFreeProc is returned by Table.Alloc when no Unused slot is
	// available.
	ErrNoFreeProc = errors.New("proc: no free process slot")

	// ErrNoSuchProc is returned by Table.Lookup when no non-Unused
	// slot carries the given pid.
	ErrNoSuchProc = errors.New("proc: no such process")
)
