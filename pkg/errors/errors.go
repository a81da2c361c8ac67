package errors

import "errors"

// Session lifecycle.
var (
	ErrSessionExists   = errors.New("a game already exists in this channel")
	ErrSessionNotFound = errors.New("there's no game in this channel")
	ErrGameNotStarted  = errors.New("the game has not started yet")
	ErrGameStarted     = errors.New("the game has already started")
)

// Lobby rules.
var (
	ErrNotHost          = errors.New("only the game's host can do this")
	ErrNotEnoughPlayers = errors.New("you can't start a game by yourself")
	ErrLastPlayer       = errors.New("the last player can't leave the lobby")
	ErrUnknownSetting   = errors.New("unknown setting")
)

// Turn rules. Reported ephemerally to the acting player; state unchanged.
var (
	ErrNotInGame        = errors.New("you aren't in the game")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCardNotHeld      = errors.New("you don't have that card")
	ErrCardNotPlayable  = errors.New("you can't play that card")
	ErrDrawStackPending = errors.New("you must draw or stack another penalty card")
	ErrChoicePending    = errors.New("finish your pending choice first")
	ErrSkipNotAllowed   = errors.New("you can't skip your turn right now")
	ErrNoColorPending   = errors.New("there's no wild card waiting for a color")
	ErrNoSwapPending    = errors.New("there's no seven waiting for a swap target")
	ErrBadColor         = errors.New("invalid color")
	ErrBadTarget        = errors.New("invalid swap target")
)

// Rejoin.
var (
	ErrRejoinBarred   = errors.New("players who left can't rejoin")
	ErrRejoinDisabled = errors.New("joining mid-game is disabled")
	ErrRejoinTooLate  = errors.New("the game is too far along to join")
)

// Gateway.
var ErrNoConnector = errors.New("no connector is attached")
