package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	if a.isLoggedIn() {
		return fmt.Sprintf("(%s)", a.session.User.Username)
	}
	return "(not logged in)"
}

func (a *App) Root(ctx context.Context) {

	printlnFn("Welcome to the Gemini chat CLI (type 'help' for commands)")

	if a.isLoggedIn() {
		printlnFn(fmt.Sprintf("Resuming session for %s", a.session.User.Username))
	} else {
		_ = a.Login(ctx)
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
