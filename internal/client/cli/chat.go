package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hassankhurram/chatbot-gemini/internal/client/api"
	"github.com/hassankhurram/chatbot-gemini/internal/common"
)

// Chat reads one message, sends the running conversation to the server and
// prints the reply as it streams in. The assembled reply is appended to the
// in-memory conversation so follow-up messages carry context.
func (a *App) Chat(ctx context.Context) error {

	if !a.isLoggedIn() {
		printlnFn("Please login first")
		return nil
	}

	content, err := GetSimpleText(a.reader, "Enter message", a.out)
	if err != nil {
		printlnFn(fmt.Sprintf("error: %v", err))
		return err
	}
	if content == "" {
		printlnFn("Nothing to send")
		return nil
	}

	turns := append(a.turns, api.TurnMessage{Role: "user", Content: content, Attachments: a.pending})

	var reply string
	err = a.client.Chat(ctx, a.session.Token, turns, func(chunk string) error {
		reply += chunk
		if _, err := fmt.Fprint(a.out, chunk); err != nil {
			return err
		}
		return nil
	})
	fmt.Fprintln(a.out)

	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			printlnFn("Session expired, please login again")
			a.dropSession()
			return err
		}
		printlnFn(fmt.Sprintf("Chat failed: %v", err))
		return err
	}

	a.turns = turns
	a.pending = nil
	if reply != "" {
		a.turns = append(a.turns, api.TurnMessage{Role: "assistant", Content: reply})
	}
	return nil
}
