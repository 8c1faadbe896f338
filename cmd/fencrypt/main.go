package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/dmitrijs2005/fencrypt/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	app := cli.NewApp(os.Stdin, os.Stdout, os.Stderr)
	code := app.Run(ctx, os.Args[1:])

	stop()
	os.Exit(code)
}
