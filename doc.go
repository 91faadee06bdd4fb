/*
Package parley is a library for building interactive command-line shells:
processes that register named commands, parse free-form input against them,
execute matched actions in a strictly serialized queue, and optionally drop
into a persistent read-eval-print loop whose live input line coexists with
asynchronous log output.

# Concept

A Shell owns three cooperating pieces: the command registry with its argument
grammar (multi-word nested names, required/optional/variadic placeholders,
negatable flags), the execution queue (FIFO, one action at a time, dual
callback/awaitable completion), and a prompt session that pauses and resumes
the live input line around log output so the terminal never corrupts. The
line-editing engine and history storage are injected behind interfaces in
pkg/ports, so the core works against any terminal backend.

# Usage

	package main

	import (
		"context"
		"fmt"
		"strings"

		"github.com/parley-sh/parley"
	)

	func main() {
		sh := parley.New(parley.WithDelimiter("app$ "))

		sh.Command("say <words...>", "Says something back.").
			Alias("speak").
			Option("-l, --loud", "shout it").
			Action(func(ctx context.Context, args *parley.Args) (any, error) {
				msg := fmt.Sprint(args.Strings("words"))
				if args.Bool("loud") {
					msg = strings.ToUpper(msg)
				}
				sh.Log(msg)
				return msg, nil
			})

		if err := sh.Show(); err != nil {
			fmt.Println(err)
		}
	}

Commands can also be executed programmatically without a live prompt:

	handle := sh.Exec("say hello world")
	result, err := handle.Wait(context.Background())

Both the awaitable handle and OnComplete callbacks observe the same single
completion; executions finish strictly in submission order.
*/
package parley
