package view

import (
	"reflect"
	"testing"

	"github.com/acrophobia/acroclient/internal/game"
)

func TestLeaderboard(t *testing.T) {
	snap := game.Snapshot{Scores: map[string]int{
		"carol": 30,
		"alice": 10,
		"bob":   30,
		"dave":  20,
	}}

	got := Leaderboard(snap)
	want := []ScoreRow{
		{Username: "bob", Score: 30},
		{Username: "carol", Score: 30},
		{Username: "dave", Score: 20},
		{Username: "alice", Score: 10},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Leaderboard = %+v, want %+v", got, want)
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	if got := Leaderboard(game.Snapshot{}); len(got) != 0 {
		t.Fatalf("Leaderboard of empty snapshot = %+v", got)
	}
}

func TestPlayerBadges(t *testing.T) {
	snap := game.Snapshot{
		Players: []string{"alice", "bob", "carol"},
		Entries: []game.Entry{
			{ID: "e1", Username: "alice", Text: "Angry Bears Cook"},
		},
		Votes: map[string]string{"bob": "e1"},
	}

	got := PlayerBadges(snap)
	want := map[string]Badges{
		"alice": {Submitted: true},
		"bob":   {Voted: true},
		"carol": {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("PlayerBadges = %+v, want %+v", got, want)
	}
}

func TestHighlightClass(t *testing.T) {
	snap := game.Snapshot{Highlight: game.Highlight{
		WinnerEntryID:  "e1",
		FastestEntryID: "e2",
	}}

	cases := []struct {
		entryID string
		want    string
	}{
		{entryID: "e1", want: "winner"},
		{entryID: "e2", want: "fastest"},
		{entryID: "e3", want: ""},
		{entryID: "", want: ""},
	}
	for _, tc := range cases {
		if got := HighlightClass(snap, tc.entryID); got != tc.want {
			t.Errorf("HighlightClass(%q) = %q, want %q", tc.entryID, got, tc.want)
		}
	}
}

func TestVotedForWinner(t *testing.T) {
	snap := game.Snapshot{Highlight: game.Highlight{
		WinnerVoters: []string{"bob", "carol"},
	}}
	if !VotedForWinner(snap, "bob") {
		t.Error("bob should be a winner voter")
	}
	if VotedForWinner(snap, "alice") {
		t.Error("alice should not be a winner voter")
	}
}

func TestEntryTimingFallsBackToEmpty(t *testing.T) {
	// No metadata at all.
	if got := EntryTiming(game.Snapshot{}, "e1"); got != "" {
		t.Errorf("EntryTiming without metadata = %q, want empty", got)
	}

	snap := game.Snapshot{Timing: map[string]float64{"e1": 4.2}}
	if got := EntryTiming(snap, "e1"); got != "4.2s" {
		t.Errorf("EntryTiming(e1) = %q, want %q", got, "4.2s")
	}
	if got := EntryTiming(snap, "e2"); got != "" {
		t.Errorf("EntryTiming for unlisted entry = %q, want empty", got)
	}
}

func TestCountdownText(t *testing.T) {
	if got := CountdownText(game.Snapshot{}); got != "" {
		t.Errorf("CountdownText without countdown = %q, want empty", got)
	}
	seconds := 15
	if got := CountdownText(game.Snapshot{Countdown: &seconds}); got != "15s" {
		t.Errorf("CountdownText = %q, want %q", got, "15s")
	}
}

func TestVoteCount(t *testing.T) {
	snap := game.Snapshot{Votes: map[string]string{
		"alice": "e2",
		"bob":   "e2",
		"carol": "e1",
	}}
	if got := VoteCount(snap, "e2"); got != 2 {
		t.Errorf("VoteCount(e2) = %d, want 2", got)
	}
	if got := VoteCount(snap, "e9"); got != 0 {
		t.Errorf("VoteCount(e9) = %d, want 0", got)
	}
}
