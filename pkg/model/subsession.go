package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

const unknown = "Unknown"

var (
	sessionNamePath    = jp.MustParseString("$.session_name")
	trackNamePath      = jp.MustParseString("$.track.track_name")
	startTimePath      = jp.MustParseString("$.start_time")
	endTimePath        = jp.MustParseString("$.end_time")
	sessionResultsPath = jp.MustParseString("$.session_results")
)

var ErrInvalidPayload = errors.New("payload is not a json object")

type (
	// Subsession wraps the raw result payload of a subsession as returned by
	// the data API. The payload is kept untouched, values are looked up on
	// demand.
	Subsession struct {
		ID   int64
		Data []byte
		doc  any
	}

	// SessionResult is one entry of the finisher list
	SessionResult struct {
		CustID         int64
		DisplayName    string
		FinishPosition any // raw value from the payload, nil if missing
	}

	// StoredSubsession is the bookkeeping view of a persisted subsession.
	StoredSubsession struct {
		ID          int64
		SessionName string
		TrackName   string
		StartTime   string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

func NewSubsession(id int64, data []byte) (*Subsession, error) {
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse subsession %d: %w", id, err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, ErrInvalidPayload
	}
	return &Subsession{ID: id, Data: data, doc: doc}, nil
}

func (s *Subsession) SessionName() string {
	return s.stringOr(sessionNamePath, unknown)
}

func (s *Subsession) TrackName() string {
	return s.stringOr(trackNamePath, unknown)
}

// StartTime returns the start time and whether the payload carries one.
func (s *Subsession) StartTime() (string, bool) {
	return s.lookup(startTimePath)
}

func (s *Subsession) EndTime() (string, bool) {
	return s.lookup(endTimePath)
}

// Results returns the finisher list in payload order.
//
// The result payload of the data API nests the finishers per simsession
// (practice, qualify, race). In that case the entries of the race
// simsession (simsession_number 0) are used.
func (s *Subsession) Results() []SessionResult {
	entries := s.resultEntries()
	ret := make([]SessionResult, 0, len(entries))
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		item := SessionResult{DisplayName: unknown}
		if v, ok := m["display_name"].(string); ok {
			item.DisplayName = v
		}
		if v, ok := m["cust_id"].(int64); ok {
			item.CustID = v
		}
		item.FinishPosition = m["finish_position"]
		ret = append(ret, item)
	}
	return ret
}

func (s *Subsession) Stored() StoredSubsession {
	start, _ := s.StartTime()
	return StoredSubsession{
		ID:          s.ID,
		SessionName: s.SessionName(),
		TrackName:   s.TrackName(),
		StartTime:   start,
	}
}

func (s *Subsession) resultEntries() []any {
	list, ok := sessionResultsPath.First(s.doc).([]any)
	if !ok {
		return nil
	}
	var last []any
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			return list
		}
		nested, ok := m["results"].([]any)
		if !ok {
			return list
		}
		if num, ok := m["simsession_number"].(int64); ok && num == 0 {
			return nested
		}
		last = nested
	}
	if last != nil {
		return last
	}
	return list
}

func (s *Subsession) stringOr(path jp.Expr, fallback string) string {
	if v, ok := s.lookup(path); ok {
		return v
	}
	return fallback
}

func (s *Subsession) lookup(path jp.Expr) (string, bool) {
	res := path.Get(s.doc)
	if len(res) == 0 || res[0] == nil {
		return "", false
	}
	switch v := res[0].(type) {
	case string:
		return v, true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// FormatPosition renders a finish position the way it is printed in summaries.
func (r SessionResult) FormatPosition() string {
	if r.FinishPosition == nil {
		return "N/A"
	}
	return fmt.Sprintf("%v", r.FinishPosition)
}
