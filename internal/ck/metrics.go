// SPDX-FileCopyrightText: 2026 Logan Lindquist Land
// SPDX-License-Identifier: FSL-1.1-MIT

package ck

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates the CK class-level report of one repository.
// Per-class metrics are averaged over all classes.
type Metrics struct {
	ClassCount int     `json:"classCount"`
	TotalLOC   int     `json:"totalLoc"`
	CBO        float64 `json:"cbo"`
	WMC        float64 `json:"wmc"`
	DIT        float64 `json:"dit"`
	RFC        float64 `json:"rfc"`
	LCOM       float64 `json:"lcom"`
}

// ErrMissingColumn is returned when class.csv lacks a required column.
var ErrMissingColumn = errors.New("class.csv missing column")

// classColumns are the CK columns read from class.csv.
var classColumns = []string{"cbo", "wmc", "dit", "rfc", "lcom", "loc"}

// ParseClassCSV reads a CK class.csv report. A header-only report yields
// zero-valued Metrics.
func ParseClassCSV(r io.Reader) (Metrics, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Metrics{}, nil
		}
		return Metrics{}, fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range classColumns {
		if _, ok := index[col]; !ok {
			return Metrics{}, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	values := make(map[string][]float64, len(classColumns))
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return Metrics{}, fmt.Errorf("reading line %d: %w", line, err)
		}

		for _, col := range classColumns {
			raw := strings.TrimSpace(record[index[col]])
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Metrics{}, fmt.Errorf("line %d column %s: %w", line, col, err)
			}
			// CK reports -1 for metrics it could not compute.
			if v < 0 {
				continue
			}
			values[col] = append(values[col], v)
		}
	}

	m := Metrics{ClassCount: line - 1}
	if m.ClassCount == 0 {
		return m, nil
	}

	for _, v := range values["loc"] {
		m.TotalLOC += int(v)
	}
	m.CBO = mean(values["cbo"])
	m.WMC = mean(values["wmc"])
	m.DIT = mean(values["dit"])
	m.RFC = mean(values["rfc"])
	m.LCOM = mean(values["lcom"])
	return m, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
