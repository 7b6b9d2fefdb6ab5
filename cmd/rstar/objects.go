package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/rstar/spatial"
)

// readObjects loads objects from a CSV file. Each record is an id followed
// by dim coordinates (points) or by dim lower and dim upper coordinates
// (boxes). A leading header row is skipped.
func readObjects(path string, dim int, boxes bool) ([]spatial.Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	want := 1 + dim
	if boxes {
		want = 1 + 2*dim
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = want
	r.ReuseRecord = true

	var objs []spatial.Object
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return objs, nil
		}
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseUint(strings.TrimSpace(rec[0]), 10, 32)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("%s:%d: id: %w", path, line, err)
		}
		coords, err := parseFloats(rec[1:])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}

		bounds := spatial.Point(coords)
		if boxes {
			if bounds, err = spatial.NewRect(coords[:dim], coords[dim:]); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, line, err)
			}
		}
		objs = append(objs, spatial.Object{ID: uint32(id), Bounds: bounds})
	}
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// parseVector parses "x,y,..." into coordinates.
func parseVector(s string) ([]float64, error) {
	if s == "" {
		return nil, errors.New("empty query vector")
	}
	return parseFloats(strings.Split(s, ","))
}
