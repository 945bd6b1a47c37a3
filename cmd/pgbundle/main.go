package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/pgbundle/internal/cli"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(pgbundle.ExitPanic)
		}
	}()

	if os.Getenv("PGBUNDLE_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(pgbundle.ExitCodeForError(err))
	}
}
