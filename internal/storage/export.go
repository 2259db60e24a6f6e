package storage

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/san-kum/legkin/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Columns  []string    `json:"columns"`
	Steps    int         `json:"steps"`
	Times    []float64   `json:"times"`
	States   [][]float64 `json:"states"`
	Controls [][]float64 `json:"controls"`
}

// ExportJSON writes a run and its trajectory as one JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	data := ExportData{
		RunMetadata: meta,
		Columns:     Header(),
		Steps:       result.StepsTaken,
		Times:       result.Times,
		States:      make([][]float64, len(result.States)),
		Controls:    make([][]float64, len(result.Controls)),
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	for i, c := range result.Controls {
		data.Controls[i] = c
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(data), "encode export")
}
