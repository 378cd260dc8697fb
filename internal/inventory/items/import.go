package items

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// importColumns is the expected CSV header. Column order is free,
// unknown columns are ignored.
var importColumns = []string{"name", "category", "type", "quantity", "cost", "condition", "location", "notes"}

// ImportCSV bulk-creates items from a CSV export. Spreadsheet tools
// like to prepend a UTF-8/UTF-16 BOM, so the reader is BOM-tolerant.
// Each row succeeds or fails on its own; one bad row never aborts the
// batch.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportItemsResponse, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return ImportItemsResponse{}, fmt.Errorf("reading csv header: %w", err)
	}
	idx := map[string]int{}
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{"name", "category", "type", "condition", "location"} {
		if _, ok := idx[required]; !ok {
			return ImportItemsResponse{}, fmt.Errorf("csv header missing column %q", required)
		}
	}

	var resp ImportItemsResponse
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			resp.Total++
			resp.NgCount++
			msg := err.Error()
			resp.Results = append(resp.Results, ImportRowResult{Row: row, Error: &msg})
			continue
		}

		resp.Total++
		req, err := rowToRequest(record, idx)
		if err == nil {
			var created ItemResponse
			created, err = s.CreateItem(ctx, req)
			if err == nil {
				resp.OkCount++
				resp.Results = append(resp.Results, ImportRowResult{
					Row:      row,
					Ok:       true,
					ItemULID: &created.ItemULID,
					Name:     &created.Name,
				})
				continue
			}
		}
		resp.NgCount++
		msg := err.Error()
		resp.Results = append(resp.Results, ImportRowResult{Row: row, Error: &msg})
	}
	return resp, nil
}

func rowToRequest(record []string, idx map[string]int) (CreateItemRequest, error) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	req := CreateItemRequest{
		Name:      field("name"),
		Category:  field("category"),
		Type:      field("type"),
		Condition: field("condition"),
		Location:  field("location"),
	}
	if v := field("quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return CreateItemRequest{}, fmt.Errorf("quantity %q is not an integer", v)
		}
		req.Quantity = n
	}
	if v := field("cost"); v != "" {
		req.Cost = &v
	}
	if v := field("notes"); v != "" {
		req.Notes = &v
	}
	return req, nil
}
