package game

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/acrophobia/acroclient/internal/board"
	"github.com/acrophobia/acroclient/internal/protocol"
	"github.com/acrophobia/acroclient/internal/socket"
)

// Sink receives side-effect triggers derived from state transitions. The
// fold itself never performs I/O; a sink implementation (audio, logging)
// reacts to what happened after the fold completes.
type Sink interface {
	PhaseChanged(from, to Phase)
	AcronymReady(letters int)
	LetterBeep(index int)
}

// NopSink discards every effect.
type NopSink struct{}

func (NopSink) PhaseChanged(Phase, Phase) {}
func (NopSink) AcronymReady(int)          {}
func (NopSink) LetterBeep(int)            {}

var (
	// ErrNotAuthenticated is returned for room commands without identity.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotJoined is returned for room commands without membership.
	ErrNotJoined = errors.New("not in a room")
	// ErrWrongPhase is returned when a command does not fit the current phase.
	ErrWrongPhase = errors.New("not available in this phase")
	// ErrAlreadySubmitted is returned for a second submission in one round.
	ErrAlreadySubmitted = errors.New("entry already submitted this round")
	// ErrOwnEntry is returned when voting for one's own entry.
	ErrOwnEntry = errors.New("cannot vote for your own entry")
	// ErrUnknownEntry is returned when voting for an entry id not on record.
	ErrUnknownEntry = errors.New("unknown entry")
)

// Channel is the slice of the connection the synchronizer uses. *socket.Conn
// implements it; tests substitute a recording fake.
type Channel interface {
	Emit(cmd protocol.Command) error
	Subscribe(h socket.Handler) *socket.Subscription
}

// Synchronizer folds server-pushed events into the latest Snapshot and turns
// user intents into outbound commands. It is the only component that
// registers event handlers on the connection; exactly one registration is
// live at a time.
type Synchronizer struct {
	conn Channel

	mu          sync.Mutex
	sub         *socket.Subscription
	sink        Sink
	board       *board.Board
	username    string
	pendingRoom string
	snap        Snapshot
	chat        ChatLog
	presence    []protocol.UserPresence
	rooms       []protocol.RoomInfo
	stats       map[string]protocol.UserStatsPayload

	onChange func()
}

// NewSynchronizer creates a synchronizer bound to the shared connection.
func NewSynchronizer(conn Channel) *Synchronizer {
	return &Synchronizer{
		conn:  conn,
		sink:  NopSink{},
		stats: make(map[string]protocol.UserStatsPayload),
	}
}

// SetSink installs the effect sink.
func (s *Synchronizer) SetSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sink == nil {
		sink = NopSink{}
	}
	s.sink = sink
}

// SetBoard routes new_message events into a message-board model.
func (s *Synchronizer) SetBoard(b *board.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = b
}

// OnChange registers a notification hook invoked after every applied event.
func (s *Synchronizer) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Attach registers the event handler set. Any previous registration is torn
// down first, so re-attaching can never double-apply server events.
func (s *Synchronizer) Attach() {
	s.mu.Lock()
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	s.sub = s.conn.Subscribe(s.handleEvent)
	s.mu.Unlock()
}

// Detach removes the handler set. Safe to call when not attached.
func (s *Synchronizer) Detach() {
	s.mu.Lock()
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
	s.mu.Unlock()
}

// SetUsername records the resolved identity's username.
func (s *Synchronizer) SetUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
}

// Reset clears room, round and chat state, and bumps past any in-flight
// membership so late events for the old room are dropped. Used on logout and
// on a failed post-reconnect session check.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	s.username = ""
	s.pendingRoom = ""
	s.snap = Snapshot{}
	s.chat = ChatLog{}
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Snapshot returns a deep copy of the current round state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Chat returns a copy of the chat log, oldest first.
func (s *Synchronizer) Chat() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.Messages()
}

// Presence returns the latest who's-online list.
func (s *Synchronizer) Presence() []protocol.UserPresence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.UserPresence(nil), s.presence...)
}

// Rooms returns the latest lobby room list.
func (s *Synchronizer) Rooms() []protocol.RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.RoomInfo(nil), s.rooms...)
}

// UserStats returns the latest pushed stats for a user, if any.
func (s *Synchronizer) UserStats(username string) (protocol.UserStatsPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[username]
	return st, ok
}

// JoinRoom emits a join command. Membership is strictly event-confirmed: the
// snapshot flips to joined only when the first room-scoped event for the
// pending room arrives, and a room_full event cancels the attempt. Switching
// rooms leaves the current seat first, so the old room's state and in-flight
// events never bleed into the new membership.
func (s *Synchronizer) JoinRoom(roomID string) error {
	s.mu.Lock()
	if s.username == "" {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	if s.snap.Joined && s.snap.Room == roomID {
		s.mu.Unlock()
		return nil
	}
	username := s.username
	oldRoom := ""
	if s.snap.Joined {
		oldRoom = s.snap.Room
		s.snap = Snapshot{}
		s.chat = ChatLog{}
	}
	s.pendingRoom = roomID
	s.snap.Notice = ""
	s.mu.Unlock()

	if oldRoom != "" {
		if err := s.conn.Emit(protocol.LeaveRoom(oldRoom, username)); err != nil {
			return err
		}
	}
	return s.conn.Emit(protocol.JoinRoom(roomID, username))
}

// LeaveRoom gives up the current seat and clears room-scoped state. Events
// still in flight for the old room are dropped by the staleness guard.
func (s *Synchronizer) LeaveRoom() error {
	s.mu.Lock()
	room := s.snap.Room
	username := s.username
	s.pendingRoom = ""
	s.snap = Snapshot{}
	s.chat = ChatLog{}
	s.mu.Unlock()

	if room == "" {
		return nil
	}
	return s.conn.Emit(protocol.LeaveRoom(room, username))
}

// SubmitEntry validates the phrase against the acronym and emits it. The
// submitted flag flips only on the entry_submitted confirmation.
func (s *Synchronizer) SubmitEntry(text string) error {
	s.mu.Lock()
	if !s.snap.Joined {
		s.mu.Unlock()
		return ErrNotJoined
	}
	if s.snap.Phase != PhaseSubmit {
		s.mu.Unlock()
		return ErrWrongPhase
	}
	if s.snap.Submitted {
		s.mu.Unlock()
		return ErrAlreadySubmitted
	}
	acronym := s.snap.Acronym
	room := s.snap.Room
	username := s.username
	s.mu.Unlock()

	if err := ValidateSubmission(acronym, text); err != nil {
		return err
	}
	return s.conn.Emit(protocol.SubmitEntry(room, username, text))
}

// CastVote emits a vote for another player's entry. A repeat call after a
// confirmed vote is an idempotent no-op.
func (s *Synchronizer) CastVote(entryID string) error {
	s.mu.Lock()
	if !s.snap.Joined {
		s.mu.Unlock()
		return ErrNotJoined
	}
	if s.snap.Phase != PhaseVote {
		s.mu.Unlock()
		return ErrWrongPhase
	}
	if s.snap.VoteConfirmed {
		s.mu.Unlock()
		return nil
	}
	var author string
	found := false
	for _, e := range s.snap.Entries {
		if e.ID == entryID {
			author = e.Username
			found = true
			break
		}
	}
	room := s.snap.Room
	username := s.username
	s.mu.Unlock()

	if !found {
		return ErrUnknownEntry
	}
	if author == username {
		return ErrOwnEntry
	}
	return s.conn.Emit(protocol.VoteEntry(room, username, entryID))
}

// SendChat emits a room-scoped chat line.
func (s *Synchronizer) SendChat(text string) error {
	s.mu.Lock()
	room := s.snap.Room
	username := s.username
	joined := s.snap.Joined
	s.mu.Unlock()

	if !joined {
		return ErrNotJoined
	}
	return s.conn.Emit(protocol.Chat(room, username, text))
}

// SendPrivate emits a direct message.
func (s *Synchronizer) SendPrivate(to, text string) error {
	s.mu.Lock()
	username := s.username
	s.mu.Unlock()

	if username == "" {
		return ErrNotAuthenticated
	}
	return s.conn.Emit(protocol.PrivateMessage(username, to, text))
}

// AddBots asks the server to seat bot opponents, clamped to the 3..7 range
// the game supports.
func (s *Synchronizer) AddBots(count int) error {
	s.mu.Lock()
	room := s.snap.Room
	joined := s.snap.Joined
	s.mu.Unlock()

	if !joined {
		return ErrNotJoined
	}
	if count < 3 {
		count = 3
	}
	if count > 7 {
		count = 7
	}
	return s.conn.Emit(protocol.AddBots(room, count))
}

// handleEvent is the fold: each named event updates exactly the slice of the
// snapshot it owns. Guards drop events for a room or round the client has
// already moved past.
func (s *Synchronizer) handleEvent(ev protocol.Event) {
	s.mu.Lock()

	if s.stale(ev) {
		s.mu.Unlock()
		log.Debug().
			Str("event", string(ev.Type)).
			Str("room", ev.Room).
			Int("round", ev.Round).
			Msg("dropping stale event")
		return
	}

	payload, err := protocol.ParsePayload(ev)
	if err != nil {
		s.mu.Unlock()
		log.Warn().Err(err).Str("event", string(ev.Type)).Msg("dropping undecodable event")
		return
	}

	// A room-scoped event for the pending room is the join confirmation,
	// except a capacity rejection.
	if s.pendingRoom != "" && ev.Room == s.pendingRoom && ev.Type != protocol.EventRoomFull {
		if s.snap.Room != "" && s.snap.Room != s.pendingRoom {
			// A confirmation for a different room than the one on record
			// means a switch; the old room's state must not carry over.
			pending := s.pendingRoom
			s.snap = Snapshot{}
			s.chat = ChatLog{}
			s.pendingRoom = pending
		}
		s.snap.Room = s.pendingRoom
		s.snap.Joined = true
		s.pendingRoom = ""
		log.Info().Str("room", s.snap.Room).Msg("room membership confirmed")
	}

	effects := s.fold(ev, payload)

	sink := s.sink
	fn := s.onChange
	s.mu.Unlock()

	for _, effect := range effects {
		effect(sink)
	}
	if fn != nil {
		fn()
	}
}

// stale reports whether the event belongs to a room or round the client has
// moved past. Lobby-scoped events carry no room and always pass.
func (s *Synchronizer) stale(ev protocol.Event) bool {
	if ev.Room != "" && ev.Room != s.snap.Room && ev.Room != s.pendingRoom {
		return true
	}
	if ev.Round != 0 && ev.Round < s.snap.Round {
		return true
	}
	return false
}

func (s *Synchronizer) fold(ev protocol.Event, payload interface{}) []func(Sink) {
	var effects []func(Sink)

	switch p := payload.(type) {
	case *protocol.PhasePayload:
		from := s.snap.Phase
		to := Phase(p.Phase)
		if to == PhaseSubmit {
			s.resetRound()
		}
		if to == PhaseResults {
			s.snap.ShowResults = true
		}
		s.snap.Phase = to
		effects = append(effects, func(sink Sink) { sink.PhaseChanged(from, to) })

	case *protocol.AcronymPayload:
		s.snap.Acronym = p.Text

	case *protocol.EntriesPayload:
		entries := make([]Entry, len(p.Entries))
		for i, e := range p.Entries {
			entries[i] = Entry{ID: e.ID, Username: e.Username, Text: e.Text}
		}
		s.snap.Entries = entries

	case *protocol.VotesPayload:
		// Votes may reference entry ids not yet folded; that is an event
		// ordering race, not an error.
		s.snap.Votes = p.Votes

	case *protocol.ScoresPayload:
		s.snap.Scores = p.Scores

	case *protocol.RoundNumberPayload:
		if p.Round > s.snap.Round {
			s.snap.Round = p.Round
		}

	case *protocol.CountdownPayload:
		seconds := p.Seconds
		s.snap.Countdown = &seconds

	case *protocol.PlayersPayload:
		s.snap.Players = p.Players

	case *protocol.UserStatsPayload:
		s.stats[p.Username] = *p

	case *protocol.RoomFullPayload:
		room := p.Room
		if room == "" {
			room = ev.Room
		}
		if s.pendingRoom != "" && (room == "" || room == s.pendingRoom) {
			s.pendingRoom = ""
			s.snap.Notice = "Room is full"
		}

	case *protocol.EntrySubmittedPayload:
		s.snap.Submitted = true
		s.snap.SubmittedEntryID = p.EntryID

	case *protocol.VoteConfirmedPayload:
		s.snap.VoteConfirmed = true
		s.snap.VotedEntryID = p.EntryID

	case *protocol.HighlightPayload:
		s.snap.Highlight = Highlight{
			WinnerEntryID:  p.WinnerEntryID,
			FastestEntryID: p.FastestEntryID,
			WinnerVoters:   p.WinnerVoters,
		}

	case *protocol.ResultsMetaPayload:
		s.snap.Timing = p.Timing

	case *protocol.ChatPayload:
		s.chat.Append(ChatMessage{Author: p.Username, Text: p.Text})

	case *protocol.PrivateMessagePayload:
		s.chat.Append(ChatMessage{Author: p.From, Text: p.Text, Private: true})

	case *protocol.ActiveUsersPayload:
		s.presence = p.Users

	case *protocol.RoomListPayload:
		s.rooms = p.Rooms

	case *protocol.AcronymReadyPayload:
		letters := p.Letters
		effects = append(effects, func(sink Sink) { sink.AcronymReady(letters) })

	case *protocol.LetterBeepPayload:
		index := p.Index
		effects = append(effects, func(sink Sink) { sink.LetterBeep(index) })

	case *protocol.BoardMessagePayload:
		if s.board != nil {
			s.board.Fold(board.Message{
				ID:        p.ID,
				Title:     p.Title,
				Content:   p.Content,
				Username:  p.Username,
				Timestamp: p.Timestamp,
				ReplyTo:   p.ReplyTo,
				Likes:     p.Likes,
			})
		}
	}

	return effects
}

// resetRound clears per-round transient state before any event of the new
// round is folded, so stale results never bleed into the new round's first
// render.
func (s *Synchronizer) resetRound() {
	s.snap.Submitted = false
	s.snap.SubmittedEntryID = ""
	s.snap.VoteConfirmed = false
	s.snap.VotedEntryID = ""
	s.snap.Highlight = Highlight{}
	s.snap.Timing = nil
	s.snap.ShowResults = false
	s.snap.Entries = nil
	s.snap.Votes = nil
	s.snap.Countdown = nil
	s.snap.Acronym = ""
}
