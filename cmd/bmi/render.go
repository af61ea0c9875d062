package main

import (
	"encoding/json"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"gopkg.in/yaml.v3"
	"io"
	"strconv"
	"text/tabwriter"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const emptyHistory = "No BMI records yet. Calculate your BMI to see results here."

type row struct {
	Age      float64 `json:"age" yaml:"age"`
	Height   float64 `json:"height" yaml:"height"`
	Weight   float64 `json:"weight" yaml:"weight"`
	BMI      float64 `json:"bmi" yaml:"bmi"`
	Category string  `json:"category" yaml:"category"`
}

func toRows(records []bmi.Record) []row {
	rows := make([]row, 0, len(records))
	for _, r := range records {
		rows = append(rows, row{
			Age:      r.Age,
			Height:   r.Height,
			Weight:   r.Weight,
			BMI:      r.BMI,
			Category: string(r.Category),
		})
	}
	return rows
}

type renderer struct {
	render func(w io.Writer, records []bmi.Record) error
}

func newRenderer(format string) (renderer, error) {
	switch format {
	case formatTable:
		return renderer{render: renderTable}, nil
	case formatJSON:
		return renderer{render: renderJSON}, nil
	case formatYAML:
		return renderer{render: renderYAML}, nil
	default:
		return renderer{}, fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, records []bmi.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, emptyHistory)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Age\tHeight (cm)\tWeight (kg)\tBMI\tCategory")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n",
			number(r.Age), number(r.Height), number(r.Weight), r.BMI, r.Category)
	}
	return tw.Flush()
}

func renderJSON(w io.Writer, records []bmi.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toRows(records))
}

func renderYAML(w io.Writer, records []bmi.Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toRows(records)); err != nil {
		return err
	}
	return enc.Close()
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
