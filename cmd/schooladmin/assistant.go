package main

import (
	"context"
	"strings"
)

func runAsk(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("ask")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return errUsage
	}
	ex, err := a.assistant.Ask(ctx, strings.Join(fs.Args(), " "))
	if err != nil {
		if ex.Reply != "" && !a.out.json {
			a.out.printf("%s\n", ex.Reply)
		}
		return err
	}
	return a.out.result(ex, func() {
		a.out.printf("%s\n", ex.Reply)
	})
}
