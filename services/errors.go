package services

import (
	"errors"
	"fmt"

	"github.com/mohamedthameursassi/IndoorNavServer/textparse"
)

var (
	ErrLocationNotFound  = errors.New("could not find start or destination location")
	ErrNoRoute           = errors.New("no route between start and destination")
	ErrUnparsableCommand = errors.New("could not understand voice command")
)

// LocationError reports which end of a request failed to resolve.
type LocationError struct {
	StartFound bool
	EndFound   bool
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("%v (start found: %t, end found: %t)", ErrLocationNotFound, e.StartFound, e.EndFound)
}

func (e *LocationError) Unwrap() error { return ErrLocationNotFound }

// CommandError carries the parse result of a voice command that did not name
// a destination.
type CommandError struct {
	Command textparse.Command
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnparsableCommand, e.Command.Destination)
}

func (e *CommandError) Unwrap() error { return ErrUnparsableCommand }
