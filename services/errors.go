package services

import "errors"

// Business-rule errors shared across services and the HTTP error mapping.
var (
	ErrValidationFailed = errors.New("validation failed")

	// Tournament configuration
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrInvalidFormat          = errors.New("invalid tournament format")
	ErrInvalidTimeControl     = errors.New("invalid time control")
	ErrSwissRoundsRequired    = errors.New("swiss tournaments require a positive round count")

	// Tournament lifecycle
	ErrTournamentAlreadyStarted = errors.New("tournament has already started")
	ErrTournamentNotStarted     = errors.New("tournament has not started")
	ErrTournamentCompleted      = errors.New("tournament is already completed")
	ErrNotEnoughPlayers         = errors.New("at least two participants are required")
	ErrRosterFrozen             = errors.New("participants cannot change after the tournament has started")

	// Rounds and results
	ErrRoundNotFinished     = errors.New("round still has pending matches")
	ErrRoundAlreadyClosed   = errors.New("round is already completed")
	ErrInvalidResult        = errors.New("invalid match result")
	ErrByeMatchImmutable    = errors.New("bye matches cannot receive a result")
	ErrResultRoundCompleted = errors.New("results can only change while the round is open")
)
