package protocol

// Payload types for the named events the game server pushes. One struct per
// event so the duck-typed payloads of the wire protocol are validated at the
// boundary instead of inside the state fold.

// Entry is one player's submitted phrase for the current acronym.
type Entry struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// PhasePayload carries the server-declared stage of the round.
type PhasePayload struct {
	Phase string `json:"phase"`
}

// AcronymPayload carries the letters for the current round.
type AcronymPayload struct {
	Text string `json:"text"`
}

// EntriesPayload replaces the full entry list for the round.
type EntriesPayload struct {
	Entries []Entry `json:"entries"`
}

// VotesPayload maps voter username to the entry id they chose.
type VotesPayload struct {
	Votes map[string]string `json:"votes"`
}

// ScoresPayload maps username to cumulative score.
type ScoresPayload struct {
	Scores map[string]int `json:"scores"`
}

// RoundNumberPayload carries the 1-based round counter.
type RoundNumberPayload struct {
	Round int `json:"round"`
}

// CountdownPayload carries seconds remaining in the current phase.
type CountdownPayload struct {
	Seconds int `json:"seconds"`
}

// PlayersPayload replaces the room roster.
type PlayersPayload struct {
	Players []string `json:"players"`
}

// UserStatsPayload carries per-user aggregate stats.
type UserStatsPayload struct {
	Username    string `json:"username"`
	GamesPlayed int    `json:"games_played"`
	RoundsWon   int    `json:"rounds_won"`
	TotalPoints int    `json:"total_points"`
}

// RoomFullPayload signals a capacity-rejected join.
type RoomFullPayload struct {
	Room string `json:"room"`
}

// EntrySubmittedPayload acknowledges this client's submission.
type EntrySubmittedPayload struct {
	EntryID string `json:"entry_id"`
}

// VoteConfirmedPayload acknowledges this client's vote.
type VoteConfirmedPayload struct {
	EntryID string `json:"entry_id"`
}

// HighlightPayload is the server-computed results designation. The client
// never recomputes winners from votes; it renders exactly this.
type HighlightPayload struct {
	WinnerEntryID  string   `json:"winner_entry_id"`
	FastestEntryID string   `json:"fastest_entry_id"`
	WinnerVoters   []string `json:"winner_voters"`
}

// ResultsMetaPayload maps entry id to elapsed submission time in seconds.
type ResultsMetaPayload struct {
	Timing map[string]float64 `json:"timing"`
}

// ChatPayload is a room-scoped chat line.
type ChatPayload struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// PrivateMessagePayload is a direct message between two users.
type PrivateMessagePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// UserPresence locates one online user.
type UserPresence struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// ActiveUsersPayload replaces the who's-online list.
type ActiveUsersPayload struct {
	Users []UserPresence `json:"users"`
}

// RoomInfo describes one joinable room in the lobby.
type RoomInfo struct {
	ID       string `json:"id"`
	Players  int    `json:"players"`
	Capacity int    `json:"capacity"`
}

// RoomListPayload replaces the lobby room list.
type RoomListPayload struct {
	Rooms []RoomInfo `json:"rooms"`
}

// AcronymReadyPayload precedes the acronym reveal; the letters are revealed
// one beep at a time after it.
type AcronymReadyPayload struct {
	Letters int `json:"letters"`
}

// LetterBeepPayload marks the reveal of one acronym letter.
type LetterBeepPayload struct {
	Index int `json:"index"`
}
