package basedata

import (
	"log"

	"github.com/shopspring/decimal"

	"github.com/mpapenbr/pacelock/pkg/model"
)

const SampleSubsessionID = int64(78923458)

// SamplePayload is a trimmed result payload in the shape returned by
// /data/results/get
const SamplePayload = `{
  "subsession_id": 78923458,
  "session_name": "Sunday Cup",
  "start_time": "2025-06-01T18:00:00Z",
  "end_time": "2025-06-01T18:45:12Z",
  "track": {"track_id": 219, "track_name": "Spa-Francorchamps"},
  "session_results": [
    {"simsession_number": -1, "simsession_type_name": "Qualifying", "results": [
      {"cust_id": 3, "display_name": "Cora Driver", "finish_position": 0}
    ]},
    {"simsession_number": 0, "simsession_type_name": "Race", "results": [
      {"cust_id": 1, "display_name": "Alex Driver", "finish_position": 0},
      {"cust_id": 2, "display_name": "Ben Driver", "finish_position": 1},
      {"cust_id": 3, "display_name": "Cora Driver", "finish_position": 2},
      {"cust_id": 4, "display_name": "Dana Driver", "finish_position": 3},
      {"cust_id": 5, "display_name": "Eli Driver", "finish_position": 4},
      {"cust_id": 6, "display_name": "Fay Driver", "finish_position": 5}
    ]}
  ]
}`

// FlatPayload carries the finishers directly in session_results.
const FlatPayload = `{
  "session_name": "Flat Session",
  "track": {"track_name": "Okayama"},
  "session_results": [
    {"display_name": "Alex Driver", "finish_position": 1},
    {"display_name": "Ben Driver"}
  ]
}`

func SampleSubsession() *model.Subsession {
	return mustSubsession(SampleSubsessionID, SamplePayload)
}

func FlatSubsession() *model.Subsession {
	return mustSubsession(1, FlatPayload)
}

func SampleLaps() []*model.LapTime {
	return []*model.LapTime{
		{
			SubsessionID: SampleSubsessionID, DriverID: 1, DriverName: "Alex Driver",
			LapNumber: 1, LapTime: decimal.RequireFromString("137.5123"), Flags: 0,
		},
		{
			SubsessionID: SampleSubsessionID, DriverID: 1, DriverName: "Alex Driver",
			LapNumber: 2, LapTime: decimal.RequireFromString("136.9871"), Flags: 4,
		},
		{
			SubsessionID: SampleSubsessionID, DriverID: 2, DriverName: "Ben Driver",
			LapNumber: 1, LapTime: decimal.NewFromInt(-1), Flags: 2,
		},
	}
}

func mustSubsession(id int64, payload string) *model.Subsession {
	s, err := model.NewSubsession(id, []byte(payload))
	if err != nil {
		log.Fatalf("basedata: %v", err)
	}
	return s
}
