package game

// Phase is the server-declared stage of a round. The client never decides
// transitions; it mirrors the label the server pushes.
type Phase string

const (
	PhaseWaiting      Phase = "waiting"
	PhaseSubmit       Phase = "submit"
	PhaseVote         Phase = "vote"
	PhaseResults      Phase = "results"
	PhaseIntermission Phase = "intermission"
	PhaseGameOver     Phase = "game_over"
)

// Entry is one player's submitted phrase, identified by an opaque server id.
type Entry struct {
	ID       string
	Username string
	Text     string
}

// Highlight is the server-computed results designation.
type Highlight struct {
	WinnerEntryID  string
	FastestEntryID string
	WinnerVoters   []string
}

// Snapshot is the full client-side mirror of the current room and round.
// It is rebuilt from scratch on reconnect; nothing here is computed from game
// rules locally.
type Snapshot struct {
	Room    string
	Joined  bool
	Players []string

	Phase     Phase
	Acronym   string
	Round     int
	Countdown *int

	Entries []Entry
	Votes   map[string]string // voter username -> entry id
	Scores  map[string]int

	Highlight Highlight
	Timing    map[string]float64 // entry id -> elapsed seconds

	Submitted        bool
	SubmittedEntryID string
	VoteConfirmed    bool
	VotedEntryID     string
	ShowResults      bool

	// Notice is the latest user-visible message (capacity rejection and the
	// like), cleared on the next successful command.
	Notice string
}

// Clone deep-copies the snapshot so readers never alias fold-owned maps.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Players != nil {
		out.Players = append([]string(nil), s.Players...)
	}
	if s.Entries != nil {
		out.Entries = append([]Entry(nil), s.Entries...)
	}
	if s.Votes != nil {
		out.Votes = make(map[string]string, len(s.Votes))
		for k, v := range s.Votes {
			out.Votes[k] = v
		}
	}
	if s.Scores != nil {
		out.Scores = make(map[string]int, len(s.Scores))
		for k, v := range s.Scores {
			out.Scores[k] = v
		}
	}
	if s.Timing != nil {
		out.Timing = make(map[string]float64, len(s.Timing))
		for k, v := range s.Timing {
			out.Timing[k] = v
		}
	}
	if s.Highlight.WinnerVoters != nil {
		out.Highlight.WinnerVoters = append([]string(nil), s.Highlight.WinnerVoters...)
	}
	if s.Countdown != nil {
		c := *s.Countdown
		out.Countdown = &c
	}
	return out
}

// ChatMessage is one chat line, room-scoped or private.
type ChatMessage struct {
	Author  string
	Text    string
	Private bool
}

// chatLogLimit caps the chat history; the oldest lines are evicted first.
const chatLogLimit = 50

// ChatLog is a bounded, append-only message sequence.
type ChatLog struct {
	msgs []ChatMessage
}

// Append adds a message, evicting the oldest once the cap is reached.
func (l *ChatLog) Append(m ChatMessage) {
	l.msgs = append(l.msgs, m)
	if len(l.msgs) > chatLogLimit {
		l.msgs = l.msgs[len(l.msgs)-chatLogLimit:]
	}
}

// Messages returns a copy of the log, oldest first.
func (l *ChatLog) Messages() []ChatMessage {
	return append([]ChatMessage(nil), l.msgs...)
}

// Len reports the number of retained messages.
func (l *ChatLog) Len() int {
	return len(l.msgs)
}
