package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hassankhurram/chatbot-gemini/internal/client/session"
	"github.com/hassankhurram/chatbot-gemini/internal/common"
)

func (a *App) Login(ctx context.Context) error {

	if a.isLoggedIn() {
		printlnFn(fmt.Sprintf("Already logged in as %s", a.session.User.Username))
		return nil
	}

	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		printlnFn(fmt.Sprintf("error: %v", err))
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		printlnFn(fmt.Sprintf("error: %v", err))
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	result, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			printlnFn("Login unsuccessful: invalid username or password")
		} else {
			printlnFn(fmt.Sprintf("Login unsuccessful: %v", err))
		}
		return err
	}

	sess := &session.Session{
		Token:     result.Token,
		User:      result.User,
		ExpiresAt: result.ExpiresAt,
	}
	if err := a.store.Set(sess); err != nil {
		// Login still worked; the session just won't survive a restart.
		printlnFn(fmt.Sprintf("warning: could not save session: %v", err))
	}

	a.session = sess
	a.turns = nil

	printlnFn(fmt.Sprintf("Logged in as %s", result.User.Username))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Not logged in")
		return nil
	}
	a.dropSession()
	printlnFn("Logged out")
	return nil
}
