package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go-data-sentinel/internal/model"
	"go-data-sentinel/pkg/utils"
)

// FileProvider materializes one dataset from a CSV or JSON file or URL.
type FileProvider struct {
	source Source
}

// NewFileProvider validates the source shape up front.
func NewFileProvider(src Source) (*FileProvider, error) {
	switch strings.ToLower(src.Type) {
	case "csv", "json":
	default:
		return nil, fmt.Errorf("unknown source type %q (want csv or json)", src.Type)
	}
	if src.Path == "" {
		return nil, fmt.Errorf("source path is required")
	}
	return &FileProvider{source: src}, nil
}

// Materialize loads all rows. The name argument is accepted for interface
// compatibility; a FileProvider is bound to a single source.
func (p *FileProvider) Materialize(ctx context.Context, name string) ([]model.GenericRecord, error) {
	reader, closer, err := open(ctx, p.source.Path)
	if err != nil {
		return nil, err
	}
	defer closer()

	switch strings.ToLower(p.source.Type) {
	case "csv":
		return readCSV(ctx, reader)
	default:
		return readJSON(reader)
	}
}

func open(ctx context.Context, pathOrURL string) (io.Reader, func(), error) {
	if strings.HasPrefix(pathOrURL, "http") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathOrURL, nil)
		if err != nil {
			return nil, nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to GET %s: %w", pathOrURL, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, nil, fmt.Errorf("GET %s returned status %d", pathOrURL, resp.StatusCode)
		}
		return resp.Body, func() { resp.Body.Close() }, nil
	}

	file, err := os.Open(pathOrURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, func() { file.Close() }, nil
}

func readCSV(ctx context.Context, reader io.Reader) ([]model.GenericRecord, error) {
	csvReader := csv.NewReader(reader)
	csvReader.LazyQuotes = true
	headers, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		// Clean header names: trim whitespace and remove quotes
		headers[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}

	var rows []model.GenericRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := csvReader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %w", err)
		}
		rec := make(model.GenericRecord, len(headers))
		for i, h := range headers {
			if i < len(record) {
				rec[h] = utils.ParseValue(record[i])
			}
		}
		rows = append(rows, rec)
	}
}

func readJSON(reader io.Reader) ([]model.GenericRecord, error) {
	var rows []model.GenericRecord
	if err := json.NewDecoder(reader).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode JSON array: %w", err)
	}
	return rows, nil
}
