package processor

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"go-silversense/types"

	"golang.org/x/sync/errgroup"
)

// batchWorkers bounds concurrent rows, mostly to stay under narrator rate
// limits.
const batchWorkers = 4

// BatchResult is one row of a batch run. Exactly one of Result and Error is
// set.
type BatchResult struct {
	Row    int     `json:"row"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// ReadCSV reads text,event,confidence rows. The first row is a header and
// is skipped. A row with a bad field count or an unparsable confidence is
// logged and skipped. An empty confidence is read as 0.
func ReadCSV(r io.Reader) ([]TextInput, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1

	// skip the header in the csv file
	if _, err := csvReader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var rows []TextInput
	for line := 2; ; line++ {
		rec, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if len(rec) != 3 {
			log.Printf("Skipping line %d with incorrect number of fields: expected 3, got %d", line, len(rec))
			continue
		}

		var conf float64
		if s := strings.TrimSpace(rec[2]); s != "" {
			conf, err = strconv.ParseFloat(s, 64)
			if err != nil {
				log.Printf("Skipping line %d with bad confidence %q: %v", line, rec[2], err)
				continue
			}
		}
		rows = append(rows, TextInput{
			Text:       rec[0],
			Event:      strings.TrimSpace(rec[1]),
			Confidence: conf,
			Source:     types.SourceBatchDataset,
		})
	}
	return rows, nil
}

// RunBatch analyzes rows with the batch_dataset source and returns results
// in input order. A rejected row is reported in its result, not returned.
func (p *Pipeline) RunBatch(ctx context.Context, rows []TextInput) []BatchResult {
	out := make([]BatchResult, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)
	for i, row := range rows {
		row.Source = types.SourceBatchDataset
		g.Go(func() error {
			out[i].Row = i
			if err := gctx.Err(); err != nil {
				out[i].Error = err.Error()
				return nil
			}
			res, err := p.AnalyzeText(gctx, row)
			if err != nil {
				out[i].Error = err.Error()
				return nil
			}
			out[i].Result = &res
			return nil
		})
	}
	g.Wait()
	return out
}
