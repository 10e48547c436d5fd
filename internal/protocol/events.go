package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is the wire envelope for every server-pushed event. The payload in
// Data is decoded by ParsePayload based on Type; Room and Round let the
// client drop events that arrived after it moved past the room or round they
// belong to.
type Event struct {
	Type  EventType       `json:"event"`
	Room  string          `json:"room,omitempty"`
	Round int             `json:"round,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EventType identifies a server-pushed event.
type EventType string

const (
	EventAcronym        EventType = "acronym"
	EventPhase          EventType = "phase"
	EventEntries        EventType = "entries"
	EventVotes          EventType = "votes"
	EventScores         EventType = "scores"
	EventRoundNumber    EventType = "round_number"
	EventCountdown      EventType = "countdown"
	EventPlayers        EventType = "players"
	EventUserStats      EventType = "user_stats"
	EventRoomFull       EventType = "room_full"
	EventEntrySubmitted EventType = "entry_submitted"
	EventVoteConfirmed  EventType = "vote_confirmed"
	EventHighlight      EventType = "highlight_results"
	EventResultsMeta    EventType = "results_metadata"
	EventChatMessage    EventType = "chat_message"
	EventPrivateMessage EventType = "private_message"
	EventActiveUsers    EventType = "active_users"
	EventRoomList       EventType = "room_list"
	EventAcronymReady   EventType = "acronym_ready"
	EventLetterBeep     EventType = "letter_beep"
	EventNewMessage     EventType = "new_message"
)

// DecodeEvent parses a raw websocket frame into an Event envelope.
func DecodeEvent(frame []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(frame, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event envelope: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("event envelope missing event name")
	}
	return ev, nil
}

// ParsePayload parses event data into the appropriate payload struct.
func ParsePayload(ev Event) (interface{}, error) {
	switch ev.Type {
	case EventAcronym:
		var p AcronymPayload
		return decodeInto(ev, &p)
	case EventPhase:
		var p PhasePayload
		return decodeInto(ev, &p)
	case EventEntries:
		var p EntriesPayload
		return decodeInto(ev, &p)
	case EventVotes:
		var p VotesPayload
		return decodeInto(ev, &p)
	case EventScores:
		var p ScoresPayload
		return decodeInto(ev, &p)
	case EventRoundNumber:
		var p RoundNumberPayload
		return decodeInto(ev, &p)
	case EventCountdown:
		var p CountdownPayload
		return decodeInto(ev, &p)
	case EventPlayers:
		var p PlayersPayload
		return decodeInto(ev, &p)
	case EventUserStats:
		var p UserStatsPayload
		return decodeInto(ev, &p)
	case EventRoomFull:
		var p RoomFullPayload
		return decodeInto(ev, &p)
	case EventEntrySubmitted:
		var p EntrySubmittedPayload
		return decodeInto(ev, &p)
	case EventVoteConfirmed:
		var p VoteConfirmedPayload
		return decodeInto(ev, &p)
	case EventHighlight:
		var p HighlightPayload
		return decodeInto(ev, &p)
	case EventResultsMeta:
		var p ResultsMetaPayload
		return decodeInto(ev, &p)
	case EventChatMessage:
		var p ChatPayload
		return decodeInto(ev, &p)
	case EventPrivateMessage:
		var p PrivateMessagePayload
		return decodeInto(ev, &p)
	case EventActiveUsers:
		var p ActiveUsersPayload
		return decodeInto(ev, &p)
	case EventRoomList:
		var p RoomListPayload
		return decodeInto(ev, &p)
	case EventAcronymReady:
		var p AcronymReadyPayload
		return decodeInto(ev, &p)
	case EventLetterBeep:
		var p LetterBeepPayload
		return decodeInto(ev, &p)
	case EventNewMessage:
		var p BoardMessagePayload
		return decodeInto(ev, &p)
	default:
		return nil, fmt.Errorf("unknown event type: %s", ev.Type)
	}
}

func decodeInto(ev Event, dst interface{}) (interface{}, error) {
	if len(ev.Data) == 0 {
		return dst, nil
	}
	if err := json.Unmarshal(ev.Data, dst); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", ev.Type, err)
	}
	return dst, nil
}

// BoardMessagePayload is the payload for a new_message event, mirroring the
// message-board rows served by the REST API.
type BoardMessagePayload struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
	ReplyTo   *int      `json:"reply_to,omitempty"`
	Likes     int       `json:"likes"`
}
