package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeEvent(t *testing.T) {
	cases := []struct {
		name    string
		frame   string
		want    Event
		wantErr string
	}{
		{
			name:  "full envelope",
			frame: `{"event":"phase","room":"room3","round":2,"data":{"phase":"submit"}}`,
			want: Event{
				Type:  EventPhase,
				Room:  "room3",
				Round: 2,
				Data:  json.RawMessage(`{"phase":"submit"}`),
			},
		},
		{
			name:  "lobby event without room",
			frame: `{"event":"room_list","data":{"rooms":[]}}`,
			want: Event{
				Type: EventRoomList,
				Data: json.RawMessage(`{"rooms":[]}`),
			},
		},
		{
			name:    "missing event name",
			frame:   `{"room":"room3"}`,
			wantErr: "missing event name",
		},
		{
			name:    "malformed json",
			frame:   `{"event":`,
			wantErr: "decode event envelope",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tc.frame))
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("DecodeEvent error = %v, want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeEvent: %v", err)
			}
			if got.Type != tc.want.Type || got.Room != tc.want.Room || got.Round != tc.want.Round {
				t.Fatalf("DecodeEvent = %+v, want %+v", got, tc.want)
			}
			if string(got.Data) != string(tc.want.Data) {
				t.Fatalf("Data = %s, want %s", got.Data, tc.want.Data)
			}
		})
	}
}

func TestParsePayload(t *testing.T) {
	cases := []struct {
		name  string
		typ   EventType
		data  string
		check func(t *testing.T, payload interface{})
	}{
		{
			name: "acronym",
			typ:  EventAcronym,
			data: `{"text":"XYZ"}`,
			check: func(t *testing.T, payload interface{}) {
				p := payload.(*AcronymPayload)
				if p.Text != "XYZ" {
					t.Fatalf("Text = %q", p.Text)
				}
			},
		},
		{
			name: "phase",
			typ:  EventPhase,
			data: `{"phase":"vote"}`,
			check: func(t *testing.T, payload interface{}) {
				p := payload.(*PhasePayload)
				if p.Phase != "vote" {
					t.Fatalf("Phase = %q", p.Phase)
				}
			},
		},
		{
			name: "entries",
			typ:  EventEntries,
			data: `{"entries":[{"id":"e1","username":"alice","text":"Xylophones Yield Zebras"}]}`,
			check: func(t *testing.T, payload interface{}) {
				p := payload.(*EntriesPayload)
				if len(p.Entries) != 1 || p.Entries[0].ID != "e1" {
					t.Fatalf("Entries = %+v", p.Entries)
				}
			},
		},
		{
			name: "votes",
			typ:  EventVotes,
			data: `{"votes":{"bob":"e1"}}`,
			check: func(t *testing.T, payload interface{}) {
				p := payload.(*VotesPayload)
				if p.Votes["bob"] != "e1" {
					t.Fatalf("Votes = %+v", p.Votes)
				}
			},
		},
		{
			name: "countdown",
			typ:  EventCountdown,
			data: `{"seconds":30}`,
			check: func(t *testing.T, payload interface{}) {
				p := payload.(*CountdownPayload)
				if p.Seconds != 30 {
					t.Fatalf("Seconds = %d", p.Seconds)
				}
			},
		},
		{
			name: "highlight results",
			typ:  EventHighlight,
			data: `{"winner_entry_id":"e1","fastest_entry_id":"e2","winner_voters":["bob"]}`,
			check: func(t *testing.T, payload interface{}) {
				p := payload.(*HighlightPayload)
				if p.WinnerEntryID != "e1" || p.FastestEntryID != "e2" || len(p.WinnerVoters) != 1 {
					t.Fatalf("Highlight = %+v", p)
				}
			},
		},
		{
			name: "room full without data",
			typ:  EventRoomFull,
			data: "",
			check: func(t *testing.T, payload interface{}) {
				p := payload.(*RoomFullPayload)
				if p.Room != "" {
					t.Fatalf("Room = %q", p.Room)
				}
			},
		},
		{
			name: "new message",
			typ:  EventNewMessage,
			data: `{"id":7,"title":"hi","content":"hello","username":"alice","reply_to":3,"likes":1}`,
			check: func(t *testing.T, payload interface{}) {
				p := payload.(*BoardMessagePayload)
				if p.ID != 7 || p.ReplyTo == nil || *p.ReplyTo != 3 {
					t.Fatalf("BoardMessage = %+v", p)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := Event{Type: tc.typ}
			if tc.data != "" {
				ev.Data = json.RawMessage(tc.data)
			}
			payload, err := ParsePayload(ev)
			if err != nil {
				t.Fatalf("ParsePayload: %v", err)
			}
			tc.check(t, payload)
		})
	}
}

func TestParsePayloadUnknownType(t *testing.T) {
	_, err := ParsePayload(Event{Type: "mystery"})
	if err == nil || !strings.Contains(err.Error(), "unknown event type") {
		t.Fatalf("ParsePayload(mystery) error = %v", err)
	}
}

func TestParsePayloadMalformedData(t *testing.T) {
	_, err := ParsePayload(Event{Type: EventCountdown, Data: json.RawMessage(`{"seconds":"soon"}`)})
	if err == nil || !strings.Contains(err.Error(), "decode countdown payload") {
		t.Fatalf("ParsePayload with bad data error = %v", err)
	}
}

func TestCommandEncode(t *testing.T) {
	cmd := SubmitEntry("room3", "alice", "Xylophones Yield Zebras")
	frame, err := cmd.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded struct {
		ID      string            `json:"id"`
		Command string            `json:"command"`
		Room    string            `json:"room"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(frame, &decoded); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if decoded.Command != string(CmdSubmitEntry) || decoded.Room != "room3" {
		t.Fatalf("frame = %+v", decoded)
	}
	if decoded.Data["username"] != "alice" || decoded.Data["text"] != "Xylophones Yield Zebras" {
		t.Fatalf("data = %+v", decoded.Data)
	}
	if decoded.ID == "" {
		t.Fatal("correlation id missing")
	}
}

func TestCommandIDsAreUnique(t *testing.T) {
	a := JoinRoom("room3", "alice")
	b := JoinRoom("room3", "alice")
	if a.ID == b.ID {
		t.Fatalf("two commands share correlation id %s", a.ID)
	}
}
