package iracing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mpapenbr/pacelock/log"
)

type (
	// LapEntry is a single lap as delivered in the lap data chunks.
	// LapTime is given in 1/10000 seconds, -1 if there is no time.
	LapEntry struct {
		GroupID     int64  `json:"group_id"`
		CustID      int64  `json:"cust_id"`
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		LapNumber   int    `json:"lap_number"`
		Flags       int    `json:"flags"`
		LapTime     int64  `json:"lap_time"`
		CarNumber   string `json:"car_number"`
	}

	chunkInfo struct {
		BaseDownloadURL string   `json:"base_download_url"`
		ChunkFileNames  []string `json:"chunk_file_names"`
		Rows            int      `json:"rows"`
	}

	lapDocument struct {
		ChunkInfo *chunkInfo `json:"chunk_info"`
	}
)

// Driver returns the name to use for the driver of the lap.
func (e *LapEntry) Driver() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.Name
}

// Result fetches the result payload of a subsession. The payload is
// returned as delivered by the API.
func (c *Client) Result(ctx context.Context, subsessionID int64) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "iracing.result")
	defer span.End()
	span.SetAttributes(subsessionAttr(subsessionID))

	c.log.Debug("loading result", log.Int64("subsessionID", subsessionID))
	data, err := c.getLinked(ctx, "/data/results/get", url.Values{
		"subsession_id": {strconv.FormatInt(subsessionID, 10)},
	})
	if err != nil {
		return nil, spanError(span, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, spanError(span,
			fmt.Errorf("subsession %d: %w", subsessionID, ErrNoData))
	}
	return trimmed, nil
}

// LapData fetches the laps of a single driver in a simsession
// (0 is the race).
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Client) LapData(
	ctx context.Context,
	subsessionID int64,
	simsession int,
	custID int64,
) ([]LapEntry, error) {
	ctx, span := c.tracer.Start(ctx, "iracing.lap_data")
	defer span.End()
	span.SetAttributes(subsessionAttr(subsessionID),
		attribute.Int64("cust.id", custID))

	ret, err := c.loadLaps(ctx, "/data/results/lap_data", url.Values{
		"subsession_id":     {strconv.FormatInt(subsessionID, 10)},
		"simsession_number": {strconv.Itoa(simsession)},
		"cust_id":           {strconv.FormatInt(custID, 10)},
	})
	if err != nil {
		return nil, spanError(span, err)
	}
	return ret, nil
}

// LapChartData fetches the laps of all drivers in a simsession.
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Client) LapChartData(
	ctx context.Context,
	subsessionID int64,
	simsession int,
) ([]LapEntry, error) {
	ctx, span := c.tracer.Start(ctx, "iracing.lap_chart_data")
	defer span.End()
	span.SetAttributes(subsessionAttr(subsessionID))

	ret, err := c.loadLaps(ctx, "/data/results/lap_chart_data", url.Values{
		"subsession_id":     {strconv.FormatInt(subsessionID, 10)},
		"simsession_number": {strconv.Itoa(simsession)},
	})
	if err != nil {
		return nil, spanError(span, err)
	}
	return ret, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Client) loadLaps(
	ctx context.Context,
	path string,
	params url.Values,
) ([]LapEntry, error) {
	data, err := c.getLinked(ctx, path, params)
	if err != nil {
		return nil, err
	}
	var doc lapDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode lap document: %w", err)
	}
	if doc.ChunkInfo == nil {
		return []LapEntry{}, nil
	}
	ret := make([]LapEntry, 0, doc.ChunkInfo.Rows)
	for _, name := range doc.ChunkInfo.ChunkFileNames {
		chunk, err := c.get(ctx, doc.ChunkInfo.BaseDownloadURL+name)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", name, err)
		}
		var entries []LapEntry
		if err := json.Unmarshal(chunk, &entries); err != nil {
			return nil, fmt.Errorf("decode chunk %s: %w", name, err)
		}
		ret = append(ret, entries...)
	}
	c.log.Debug("laps loaded", log.String("path", path), log.Int("laps", len(ret)),
		log.Int("chunks", len(doc.ChunkInfo.ChunkFileNames)))
	return ret, nil
}
