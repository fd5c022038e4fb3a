package namecolor

import (
	"runtime/debug"

	"github.com/mhwmods/namecolor/config"
	"github.com/mhwmods/namecolor/game"
	"github.com/mhwmods/namecolor/logger"
)

// Original has the signature of player.ClonePlayerShortInfo:
//
//	int64 ClonePlayerShortInfo(void *subject, void *result)
type Original func(subject, result uintptr) int64

// Handler replaces the hooked function. It must match Original.
type Handler func(subject, result uintptr) int64

// Interceptor recolors the local player's name. It is immutable, so the game
// may call Intercept from any number of threads.
type Interceptor struct {
	original Original
	color    config.Color
	actors   game.Actors
	log      *logger.Logger
}

func NewInterceptor(original Original, color config.Color, actors game.Actors, log *logger.Logger) *Interceptor {
	return &Interceptor{
		original: original,
		color:    color,
		actors:   actors,
		log:      log,
	}
}

// Intercept calls the original function, then writes the configured color
// into result if subject is the local player. The return value is always the
// original function's. Any failure leaves result as the original function
// left it.
func (ic *Interceptor) Intercept(subject, result uintptr) (ret int64) {
	ret = ic.original(subject, result)

	// A fault here would take the game down with it.
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		if r := recover(); r != nil {
			ic.log.Errorf("Recovered while recoloring name: %v", r)
		}
	}()

	ic.apply(game.Subject(subject), game.Result(result))
	return ret
}

func (ic *Interceptor) apply(subject game.Subject, result game.Result) {
	name, err := subject.Name()
	if err != nil {
		ic.log.Errorf("Failed to get player name: %v", err)
		return
	}

	actor, ok := ic.actors.CurrentActor()
	if !ok {
		return
	}
	if name != actor.Name() {
		return
	}

	if ic.color == config.Default {
		return
	}

	err = result.SetNameColor(ic.color.Code())
	if err != nil {
		ic.log.Errorf("Failed to set player name color: %v", err)
	}
}
