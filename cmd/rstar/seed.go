package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-faker/faker/v4"
)

func runSeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	n := fs.Int("n", 1000, "number of points")
	out := fs.String("out", "points.csv", "output CSV file ('-' for stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "lat", "lon"}); err != nil {
		return err
	}
	for i := range *n {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(faker.Latitude(), 'f', 6, 64),
			strconv.FormatFloat(faker.Longitude(), 'f', 6, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if *out != "-" {
		fmt.Fprintf(os.Stderr, "wrote %s points to %s\n", humanize.Comma(int64(*n)), *out)
	}
	return nil
}
