package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrInvalidSecret        = errors.New("invalid secret")
	ErrSecretAlreadyActive  = errors.New("secret is already in use")
	ErrAlreadyAuthenticated = errors.New("connection is already authenticated")
	ErrCredentialNotFound   = errors.New("credential not found")

	// Presence errors
	ErrParticipantNotFound = errors.New("participant not found")
	ErrAlreadyPresent      = errors.New("participant is already present")

	// Pairing errors
	ErrTargetUnavailable = errors.New("player is not available")
	ErrNoPendingRequest  = errors.New("no pending game request from player")

	// Session errors
	ErrNoSession       = errors.New("participant is not in a session")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionComplete = errors.New("session is already complete")
	ErrNotPlayerTurn   = errors.New("not this player's turn")
	ErrInvalidPosition = errors.New("invalid board position")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrNoLegalMove     = errors.New("no legal move available")
)
