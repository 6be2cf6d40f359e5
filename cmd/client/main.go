package main

import (
	"context"
	"log"

	"github.com/hassankhurram/chatbot-gemini/internal/client/cli"
	"github.com/hassankhurram/chatbot-gemini/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
