package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dwikikusuma/storefront-sync/pkg/errs"
	"github.com/dwikikusuma/storefront-sync/pkg/shutdown"
)

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errs.UserMessage(err))
		if fields := errs.FieldsOf(err); len(fields) > 0 {
			for k, v := range fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", k, v)
			}
		}
		fmt.Fprintln(os.Stderr, "detail:", err)
		os.Exit(1)
	}
}
