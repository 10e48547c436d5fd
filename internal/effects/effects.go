// Package effects executes the side effects the state fold only describes:
// beeps and chimes around acronym reveals and phase changes. Keeping them
// behind the Player interface keeps the reconciliation core testable without
// audio I/O.
package effects

import (
	"github.com/rs/zerolog/log"

	"github.com/acrophobia/acroclient/internal/game"
)

// Player produces the actual sounds.
type Player interface {
	Beep()
	LetterBeep(index int)
}

// Executor implements game.Sink by mapping state transitions to Player calls.
type Executor struct {
	player Player
}

// NewExecutor creates an executor over the given player.
func NewExecutor(player Player) *Executor {
	return &Executor{player: player}
}

// PhaseChanged chimes when a round opens for submissions or results land.
func (e *Executor) PhaseChanged(from, to game.Phase) {
	if from == to {
		return
	}
	switch to {
	case game.PhaseSubmit, game.PhaseResults:
		e.player.Beep()
	}
}

// AcronymReady chimes once before the letters reveal.
func (e *Executor) AcronymReady(letters int) {
	e.player.Beep()
}

// LetterBeep plays the per-letter reveal beep.
func (e *Executor) LetterBeep(index int) {
	e.player.LetterBeep(index)
}

// LogPlayer is the default Player for terminal use: it logs instead of
// playing audio.
type LogPlayer struct{}

func (LogPlayer) Beep() {
	log.Debug().Msg("beep")
}

func (LogPlayer) LetterBeep(index int) {
	log.Debug().Int("letter", index).Msg("letter beep")
}
