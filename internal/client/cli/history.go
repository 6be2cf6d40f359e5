package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hassankhurram/chatbot-gemini/internal/common"
)

// History prints the saved conversation, oldest first, the way the server
// returns it.
func (a *App) History(ctx context.Context) error {

	if !a.isLoggedIn() {
		printlnFn("Please login first")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	messages, err := a.client.History(ctx, a.session.Token, a.config.HistoryLimit)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			printlnFn("Session expired, please login again")
			a.dropSession()
			return err
		}
		printlnFn(fmt.Sprintf("History failed: %v", err))
		return err
	}

	if len(messages) == 0 {
		printlnFn("No messages yet")
		return nil
	}

	for _, m := range messages {
		printlnFn(fmt.Sprintf("[%s] %s: %s", m.Timestamp.Local().Format("2006-01-02 15:04"), m.Username, m.Content))
		for _, att := range m.Attachments {
			printlnFn(fmt.Sprintf("  attachment: %s (%s)", att.Name, att.URL))
		}
	}
	return nil
}

// Status probes server liveness.
func (a *App) Status(ctx context.Context) error {

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	if err := a.client.Status(ctx); err != nil {
		printlnFn(fmt.Sprintf("Server unavailable: %v", err))
		return err
	}
	printlnFn("Server is up")
	return nil
}
