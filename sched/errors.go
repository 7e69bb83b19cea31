package sched

import (
	"errors"

	"github.com/joeycumines/go-mlfqstride/proc"
)

// Sentinel errors returned by Kernel's exported methods. ErrNoFreeProc and
// ErrNoSuchProc are re-exported from package proc so callers never need to
// import it just to compare errors.
var (
	ErrNoFreeProc = proc.ErrNoFreeProc
	ErrNoSuchProc = proc.ErrNoSuchProc

	// ErrInvalidShare is returned by SetCPUShare when the requested
	// ticket count is out of range or would breach Config.Reserve.
	ErrInvalidShare = errors.New("sched: invalid or unsatisfiable cpu share")

	// ErrNoChildren is returned by Wait when the caller has no children,
	// living or dead.
	ErrNoChildren = errors.New("sched: no children")

	// ErrKilled is returned by Wait when the caller itself has been
	// killed.
	ErrKilled = errors.New("sched: killed")

	// ErrAlreadyRunning is returned by RunCPUs if the Kernel's scheduler
	// loops have already been started.
	ErrAlreadyRunning = errors.New("sched: already running")
)
