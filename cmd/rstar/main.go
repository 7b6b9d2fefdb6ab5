// Command rstar builds and queries page-backed R*-tree indexes.
//
// Usage:
//
//	rstar seed    -n 10000 -out points.csv
//	rstar build   -in points.csv -dim 2 -path index.rst
//	rstar range   -path index.rst -q 48.1,11.5 -eps 0.5
//	rstar knn     -path index.rst -q 48.1,11.5 -k 10
//	rstar inspect -path index.rst
//	rstar serve   -path index.rst -addr :8080
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands = []command{
	{"seed", "write random geographic points as CSV", runSeed},
	{"build", "build an index from a CSV file", runBuild},
	{"range", "find all objects within a distance", runRange},
	{"knn", "find the k nearest objects", runKNN},
	{"inspect", "print index structure and statistics", runInspect},
	{"serve", "serve range and knn queries over HTTP", runServe},
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags]\n\nCommands:\n", os.Args[0])
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(os.Stderr, "\nRun '%s <command> -h' for command flags.\n", os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, c := range commands {
		if c.name != os.Args[1] {
			continue
		}
		if err := c.run(ctx, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
			os.Exit(1)
		}
		return
	}
	usage()
	os.Exit(2)
}
