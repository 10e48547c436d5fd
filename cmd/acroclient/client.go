package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/acrophobia/acroclient/internal/board"
	"github.com/acrophobia/acroclient/internal/config"
	"github.com/acrophobia/acroclient/internal/effects"
	"github.com/acrophobia/acroclient/internal/game"
	"github.com/acrophobia/acroclient/internal/rest"
	"github.com/acrophobia/acroclient/internal/session"
	"github.com/acrophobia/acroclient/internal/socket"
	"github.com/acrophobia/acroclient/internal/view"
)

func runClient(ctx context.Context, cfg *config.Config, opts *options) error {
	api := rest.NewClient(cfg.Server.BaseURL)

	sockCfg := socket.DefaultConfig(cfg.Server.SocketURL)
	sockCfg.DialTimeout = cfg.Socket.DialTimeout
	sockCfg.WriteTimeout = cfg.Socket.WriteTimeout
	sockCfg.PongTimeout = cfg.Socket.PongTimeout
	sockCfg.PingInterval = cfg.Socket.PingInterval
	sockCfg.ReconnectMin = cfg.Socket.ReconnectMin
	sockCfg.ReconnectMax = cfg.Socket.ReconnectMax
	sockCfg.MaxMessageSize = cfg.Socket.MaxMessageKiB * 1024
	conn := socket.NewConn(sockCfg)

	store := session.NewCredentialStore(cfg.Session.CredentialsFile)
	mgr := session.NewManager(api, conn, store, cfg.Session.RestoreTimeout)

	syncer := game.NewSynchronizer(conn)
	syncer.SetSink(effects.NewExecutor(effects.LogPlayer{}))

	brd := board.New()
	syncer.SetBoard(brd)

	mgr.OnIdentityChange(func(id session.Identity) {
		if id.Authenticated {
			syncer.SetUsername(id.Username)
		} else {
			syncer.Reset()
		}
	})

	syncer.Attach()
	defer syncer.Detach()
	defer conn.Disconnect()

	fmt.Println("Checking session...")
	id := mgr.Restore(ctx)

	if !id.Authenticated && opts.username != "" && opts.password != "" {
		var err error
		id, err = mgr.Login(ctx, opts.username, opts.password)
		if err != nil {
			fmt.Printf("Login failed: %v\n", err)
		}
	}

	if id.Authenticated {
		fmt.Printf("Logged in as %s\n", id.Username)
	} else {
		fmt.Println("Not logged in. Pass --username and --password, or use /login.")
	}

	r := &renderer{syncer: syncer}
	syncer.OnChange(r.render)

	if opts.room != "" && id.Authenticated {
		if err := syncer.JoinRoom(opts.room); err != nil {
			fmt.Printf("Join failed: %v\n", err)
		}
	}

	return inputLoop(ctx, mgr, syncer, brd, api)
}

// renderer prints a status line whenever the visible slice of the snapshot
// changes. It deliberately tracks only the fields a terminal user watches.
type renderer struct {
	syncer *game.Synchronizer

	mu        sync.Mutex
	lastPhase game.Phase
	lastAcro  string
	lastChat  int
	lastNote  string
}

func (r *renderer) render() {
	snap := r.syncer.Snapshot()
	chat := r.syncer.Chat()

	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.Notice != "" && snap.Notice != r.lastNote {
		fmt.Printf("!! %s\n", snap.Notice)
	}
	r.lastNote = snap.Notice

	for _, m := range chat[min(r.lastChat, len(chat)):] {
		if m.Private {
			fmt.Printf("[pm] %s: %s\n", m.Author, m.Text)
		} else {
			fmt.Printf("<%s> %s\n", m.Author, m.Text)
		}
	}
	r.lastChat = len(chat)

	if snap.Phase == r.lastPhase && snap.Acronym == r.lastAcro {
		return
	}
	r.lastPhase = snap.Phase
	r.lastAcro = snap.Acronym

	switch snap.Phase {
	case game.PhaseSubmit:
		fmt.Printf("== Round %d | acronym: %s | type your phrase and press enter\n", snap.Round, snap.Acronym)
	case game.PhaseVote:
		fmt.Println("== Voting: pick an entry with /vote <id>")
		for _, e := range snap.Entries {
			fmt.Printf("  [%s] %s\n", e.ID, e.Text)
		}
	case game.PhaseResults:
		fmt.Println("== Results:")
		for _, e := range snap.Entries {
			marker := view.HighlightClass(snap, e.ID)
			timing := view.EntryTiming(snap, e.ID)
			fmt.Printf("  %-8s %s — %s (%d votes) %s\n",
				marker, e.Username, e.Text, view.VoteCount(snap, e.ID), timing)
		}
		for _, row := range view.Leaderboard(snap) {
			fmt.Printf("  %s: %d pts\n", row.Username, row.Score)
		}
	case game.PhaseGameOver:
		fmt.Println("== Game over! Final scores:")
		for _, row := range view.Leaderboard(snap) {
			fmt.Printf("  %s: %d pts\n", row.Username, row.Score)
		}
	case game.PhaseWaiting:
		fmt.Println("== Waiting for next round...")
	}
}

func inputLoop(ctx context.Context, mgr *session.Manager, syncer *game.Synchronizer, brd *board.Board, api *rest.Client) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := syncer.SubmitEntry(line); err != nil {
				fmt.Printf("!! %v\n", err)
			}
			continue
		}
		if quit := handleCommand(ctx, line, mgr, syncer, brd, api); quit {
			return nil
		}
	}
	return scanner.Err()
}

func handleCommand(ctx context.Context, line string, mgr *session.Manager, syncer *game.Synchronizer, brd *board.Board, api *rest.Client) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "/quit":
		return true

	case "/login":
		if len(args) < 2 {
			fmt.Println("usage: /login <username> <password>")
			break
		}
		_, err = mgr.Login(ctx, args[0], args[1])

	case "/register":
		if len(args) < 3 {
			fmt.Println("usage: /register <username> <email> <password>")
			break
		}
		_, err = mgr.Register(ctx, args[0], args[1], args[2])

	case "/logout":
		mgr.Logout()

	case "/join":
		if len(args) < 1 {
			fmt.Println("usage: /join <room>")
			break
		}
		err = syncer.JoinRoom(args[0])

	case "/leave":
		err = syncer.LeaveRoom()

	case "/vote":
		if len(args) < 1 {
			fmt.Println("usage: /vote <entry-id>")
			break
		}
		err = syncer.CastVote(args[0])

	case "/chat":
		err = syncer.SendChat(strings.Join(args, " "))

	case "/msg":
		if len(args) < 2 {
			fmt.Println("usage: /msg <user> <text>")
			break
		}
		err = syncer.SendPrivate(args[0], strings.Join(args[1:], " "))

	case "/bots":
		count := 5
		if len(args) > 0 {
			if n, convErr := strconv.Atoi(args[0]); convErr == nil {
				count = n
			}
		}
		err = syncer.AddBots(count)

	case "/rooms":
		for _, room := range syncer.Rooms() {
			fmt.Printf("  %s (%d/%d)\n", room.ID, room.Players, room.Capacity)
		}

	case "/who":
		for _, p := range syncer.Presence() {
			where := p.Room
			if where == "" {
				where = "lobby"
			}
			fmt.Printf("  %s — %s\n", p.Username, where)
		}

	case "/stats":
		stats, statsErr := api.Stats(ctx)
		if statsErr != nil {
			err = statsErr
			break
		}
		fmt.Printf("players: %d, games today: %d, rooms live: %d\n",
			stats.TotalPlayers, stats.GamesToday, stats.RoomsLive)
		for _, row := range stats.Top10Daily {
			fmt.Printf("  %s: %d pts\n", row.Username, row.TotalPoints)
		}

	case "/board":
		if brd.Len() == 0 {
			msgs, fetchErr := api.Messages(ctx)
			if fetchErr != nil {
				err = fetchErr
				break
			}
			brd.Replace(toBoardMessages(msgs))
		}
		for _, m := range brd.Threaded() {
			fmt.Printf("  %s — %s (by %s, %d likes)\n", m.Title, m.Content, m.Username, m.Likes)
			for _, reply := range m.Replies {
				fmt.Printf("    ↳ %s (by %s)\n", reply.Content, reply.Username)
			}
		}

	case "/post":
		if len(args) < 2 {
			fmt.Println("usage: /post <title> <content...>")
			break
		}
		_, err = api.PostMessage(ctx, args[0], strings.Join(args[1:], " "), nil)

	case "/edit":
		if len(args) < 3 {
			fmt.Println("usage: /edit <id> <title> <content...>")
			break
		}
		id, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			fmt.Printf("!! %q is not a message id\n", args[0])
			break
		}
		_, err = api.UpdateMessage(ctx, id, args[1], strings.Join(args[2:], " "))

	case "/profile":
		if len(args) < 2 {
			fmt.Println("usage: /profile <email> <password>")
			break
		}
		err = api.UpdateProfile(ctx, args[0], args[1])

	default:
		fmt.Printf("unknown command %s\n", cmd)
	}

	if err != nil {
		fmt.Printf("!! %v\n", err)
	}
	return false
}

func toBoardMessages(msgs []rest.Message) []board.Message {
	out := make([]board.Message, len(msgs))
	for i, m := range msgs {
		out[i] = board.Message{
			ID:        m.ID,
			Title:     m.Title,
			Content:   m.Content,
			Username:  m.Username,
			Timestamp: m.Timestamp,
			ReplyTo:   m.ReplyTo,
			Likes:     m.Likes,
		}
	}
	return out
}
