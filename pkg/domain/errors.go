package domain

import "errors"

// ErrInvalidDimensions is returned when a grid is configured below the minimum size.
var ErrInvalidDimensions = errors.New("invalid grid dimensions")

// ErrInvalidWallMask is returned when a wall mask does not match the grid shape.
var ErrInvalidWallMask = errors.New("wall mask does not match grid dimensions")

// ErrOutOfBounds is returned when an edit addresses a cell outside the grid.
var ErrOutOfBounds = errors.New("cell out of bounds")

// ErrRunAlreadyActive is returned when a run is started while another one is in progress.
var ErrRunAlreadyActive = errors.New("run already active")

// ErrEditWhileRunning is returned when the grid is edited during an active run.
var ErrEditWhileRunning = errors.New("grid cannot be edited while a run is active")

// ErrNoActiveRun is returned when cancellation is requested but nothing is running.
var ErrNoActiveRun = errors.New("no active run")

// ErrInvalidSpeed is returned for speed levels outside [MinSpeed, MaxSpeed].
var ErrInvalidSpeed = errors.New("invalid speed level")

// ErrInvalidDensity is returned for wall densities outside [0, 1].
var ErrInvalidDensity = errors.New("invalid wall density")

// ErrLockHeld is returned by a RunLocker when the run lock is owned by someone else.
var ErrLockHeld = errors.New("run lock held")
