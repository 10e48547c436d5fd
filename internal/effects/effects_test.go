package effects

import (
	"testing"

	"github.com/acrophobia/acroclient/internal/game"
)

type countingPlayer struct {
	beeps       int
	letterBeeps []int
}

func (p *countingPlayer) Beep()                { p.beeps++ }
func (p *countingPlayer) LetterBeep(index int) { p.letterBeeps = append(p.letterBeeps, index) }

func TestPhaseChangedBeeps(t *testing.T) {
	cases := []struct {
		name string
		from game.Phase
		to   game.Phase
		want int
	}{
		{name: "into submit", from: game.PhaseWaiting, to: game.PhaseSubmit, want: 1},
		{name: "into results", from: game.PhaseVote, to: game.PhaseResults, want: 1},
		{name: "into vote is silent", from: game.PhaseSubmit, to: game.PhaseVote, want: 0},
		{name: "no transition", from: game.PhaseSubmit, to: game.PhaseSubmit, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			player := &countingPlayer{}
			NewExecutor(player).PhaseChanged(tc.from, tc.to)
			if player.beeps != tc.want {
				t.Fatalf("beeps = %d, want %d", player.beeps, tc.want)
			}
		})
	}
}

func TestAcronymRevealBeeps(t *testing.T) {
	player := &countingPlayer{}
	e := NewExecutor(player)

	e.AcronymReady(3)
	e.LetterBeep(0)
	e.LetterBeep(1)
	e.LetterBeep(2)

	if player.beeps != 1 {
		t.Fatalf("ready beeps = %d, want 1", player.beeps)
	}
	if len(player.letterBeeps) != 3 || player.letterBeeps[2] != 2 {
		t.Fatalf("letter beeps = %v", player.letterBeeps)
	}
}
