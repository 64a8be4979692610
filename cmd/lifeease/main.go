package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lifeease/lifeease-client/internal/app"
	types "github.com/lifeease/lifeease-client/internal/domain"
)

type fileList []string

func (l *fileList) String() string { return strings.Join(*l, ",") }
func (l *fileList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var (
		health  bool
		send    string
		files   fileList
		history bool
		verify  bool
		first   string
		second  string
		end     bool
	)
	flag.BoolVar(&health, "health", false, "probe the backend health endpoint")
	flag.StringVar(&send, "send", "", "send one chat turn with the given text")
	flag.Var(&files, "file", "attachment to stage before -send (repeatable)")
	flag.BoolVar(&history, "history", false, "fetch and print server-side history for the current session")
	flag.BoolVar(&verify, "verify", false, "run the two-turn history verification flow")
	flag.StringVar(&first, "first", "My name is Maya.", "first verification turn")
	flag.StringVar(&second, "second", "What is my name?", "second verification turn")
	flag.BoolVar(&end, "end", false, "end the current conversation and rotate the session")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()

	switch {
	case health:
		st, err := application.Backend.Health(ctx)
		if err != nil {
			fmt.Printf("health check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("backend healthy: %s\n", st.Status)

	case send != "" || len(files) > 0:
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Printf("read attachment %s: %v\n", path, err)
				os.Exit(1)
			}
			application.Services.Conversation.StageAttachment(types.NewAttachment(filepath.Base(path), data))
		}
		receipt, ok := application.Services.Conversation.Send(ctx, send)
		if !ok {
			fmt.Println("nothing to send")
			return
		}
		<-receipt.Done
		printTranscript(application)

	case history:
		resp, err := application.Services.Router.FetchHistory(ctx)
		if err != nil {
			fmt.Printf("history fetch failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("session %s, %d entries\n", resp.SessionID, len(resp.History))
		for _, e := range resp.History {
			fmt.Printf("  [%s] %s\n", e.Role, e.Text)
		}

	case verify:
		res, err := application.Services.Verify.Verify(ctx, first, second)
		if err != nil {
			fmt.Printf("verify failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("session %s, history length %d, last roles %v\n", res.SessionID, res.HistoryLength, res.Roles)
		if res.OK {
			fmt.Println("assistant present in last turns: YES")
		} else {
			fmt.Println("assistant present in last turns: NO")
			os.Exit(1)
		}

	case end:
		sid, err := application.EndConversation(ctx)
		if err != nil {
			fmt.Printf("end conversation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("conversation ended, new session %s\n", sid)

	default:
		flag.Usage()
	}
}

func printTranscript(application *app.App) {
	for _, t := range application.Services.Conversation.Transcript() {
		tag := string(t.Role)
		if t.Status == types.TurnFailed {
			tag += "/failed"
		}
		fmt.Printf("[%s] %s\n", tag, t.Text)
		for _, a := range t.Attachments {
			fmt.Printf("    attachment: %s (%d bytes)\n", a.Name, a.ByteSize)
		}
	}
}
