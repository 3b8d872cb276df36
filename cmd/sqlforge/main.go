/*
sqlforge - query a database from the command line through the sqlforge builder.

Usage:

	sqlforge -config sqlforge.yaml -table users select
	sqlforge -config sqlforge.yaml -table users -where city=Tokyo -order -id select
	sqlforge -config sqlforge.yaml -table users -where active=1 count
	sqlforge -config sqlforge.yaml -table users -page 2 -per-page 20 page

Statements run through the configured rate limiter and result cache. Output is
JSON on stdout; logs go to stderr.
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
