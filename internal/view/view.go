// Package view derives rendering-ready values from the latest snapshot. All
// functions are pure: they never mutate their inputs and never perform I/O,
// so presentation can call them on every repaint.
package view

import (
	"fmt"
	"sort"

	"github.com/acrophobia/acroclient/internal/game"
)

// ScoreRow is one leaderboard line.
type ScoreRow struct {
	Username string
	Score    int
}

// Leaderboard returns players sorted by descending score. Equal scores keep
// their username order, so repeated renders are stable.
func Leaderboard(snap game.Snapshot) []ScoreRow {
	rows := make([]ScoreRow, 0, len(snap.Scores))
	for username, score := range snap.Scores {
		rows = append(rows, ScoreRow{Username: username, Score: score})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Username < rows[j].Username })
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	return rows
}

// Badges flags per-player round progress for the roster display.
type Badges struct {
	Submitted bool
	Voted     bool
}

// PlayerBadges derives the per-player badges from set membership in the
// round's entries and votes.
func PlayerBadges(snap game.Snapshot) map[string]Badges {
	badges := make(map[string]Badges, len(snap.Players))
	for _, username := range snap.Players {
		badges[username] = Badges{}
	}
	for _, e := range snap.Entries {
		b := badges[e.Username]
		b.Submitted = true
		badges[e.Username] = b
	}
	for voter := range snap.Votes {
		b := badges[voter]
		b.Voted = true
		badges[voter] = b
	}
	return badges
}

// HighlightClass classifies an entry for results rendering. The designation
// comes entirely from server-supplied metadata; an entry outside it gets the
// empty class.
func HighlightClass(snap game.Snapshot, entryID string) string {
	switch entryID {
	case "":
		return ""
	case snap.Highlight.WinnerEntryID:
		return "winner"
	case snap.Highlight.FastestEntryID:
		return "fastest"
	default:
		return ""
	}
}

// VotedForWinner reports whether a user is listed among the winning entry's
// voters.
func VotedForWinner(snap game.Snapshot, username string) bool {
	for _, voter := range snap.Highlight.WinnerVoters {
		if voter == username {
			return true
		}
	}
	return false
}

// EntryTiming renders the elapsed-time label for an entry, or an empty string
// when the metadata has not arrived. Missing timing is an expected ordering
// race, not a fault.
func EntryTiming(snap game.Snapshot, entryID string) string {
	if snap.Timing == nil {
		return ""
	}
	elapsed, ok := snap.Timing[entryID]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.1fs", elapsed)
}

// CountdownText renders the countdown, or an empty string when the server
// has not pushed one.
func CountdownText(snap game.Snapshot) string {
	if snap.Countdown == nil {
		return ""
	}
	return fmt.Sprintf("%ds", *snap.Countdown)
}

// VoteCount tallies votes received by an entry. Votes for unknown entries are
// counted against the id they name, tolerating ordering races.
func VoteCount(snap game.Snapshot, entryID string) int {
	count := 0
	for _, chosen := range snap.Votes {
		if chosen == entryID {
			count++
		}
	}
	return count
}
