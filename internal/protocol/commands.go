package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CommandType identifies an outbound client command.
type CommandType string

const (
	CmdJoinRoom       CommandType = "join_room"
	CmdLeaveRoom      CommandType = "leave_room"
	CmdSubmitEntry    CommandType = "submit_entry"
	CmdVoteEntry      CommandType = "vote_entry"
	CmdChat           CommandType = "chat"
	CmdPrivateMessage CommandType = "private_message"
	CmdAddBots        CommandType = "add_bots"
	CmdSessionCheck   CommandType = "session_check"
)

// Command is the wire envelope for a user intent emitted to the server. ID is
// a correlation id so acknowledgement events can be matched to the command
// that caused them.
type Command struct {
	ID   string      `json:"id"`
	Type CommandType `json:"command"`
	Room string      `json:"room,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// Encode marshals the command for the wire.
func (c Command) Encode() ([]byte, error) {
	frame, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s command: %w", c.Type, err)
	}
	return frame, nil
}

func newCommand(t CommandType, room string, data interface{}) Command {
	return Command{ID: uuid.New().String(), Type: t, Room: room, Data: data}
}

// JoinRoom asks the server to seat username in a room. Membership is not
// assumed until a room-scoped event confirms it.
func JoinRoom(room, username string) Command {
	return newCommand(CmdJoinRoom, room, map[string]string{"username": username})
}

// LeaveRoom gives up the current seat.
func LeaveRoom(room, username string) Command {
	return newCommand(CmdLeaveRoom, room, map[string]string{"username": username})
}

// SubmitEntry submits a phrase for the current acronym.
func SubmitEntry(room, username, text string) Command {
	return newCommand(CmdSubmitEntry, room, map[string]string{"username": username, "text": text})
}

// VoteEntry casts a vote for another player's entry.
func VoteEntry(room, username, entryID string) Command {
	return newCommand(CmdVoteEntry, room, map[string]string{"username": username, "entryId": entryID})
}

// Chat sends a room-scoped chat line.
func Chat(room, username, text string) Command {
	return newCommand(CmdChat, room, map[string]string{"username": username, "text": text})
}

// PrivateMessage sends a direct message to another user.
func PrivateMessage(from, to, text string) Command {
	return newCommand(CmdPrivateMessage, "", map[string]string{"from": from, "to": to, "text": text})
}

// AddBots asks the server to seat bot opponents in the room.
func AddBots(room string, count int) Command {
	return newCommand(CmdAddBots, room, map[string]int{"count": count})
}

// SessionCheck asks the server to re-confirm the session after a reconnect.
func SessionCheck(username string) Command {
	return newCommand(CmdSessionCheck, "", map[string]string{"username": username})
}
