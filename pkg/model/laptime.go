package model

import (
	"github.com/shopspring/decimal"
)

// LapTime is a single lap of a driver within a subsession.
type LapTime struct {
	SubsessionID int64
	DriverID     int64
	DriverName   string
	LapNumber    int
	LapTime      decimal.Decimal // seconds, negative if the lap has no valid time
	Flags        int
}

// lap times are delivered in 1/10000 seconds
const lapTimeExp = -4

// LapTimeFromAPI converts the API representation (ten-thousandths of a
// second, -1 for no time) into seconds.
func LapTimeFromAPI(raw int64) decimal.Decimal {
	if raw < 0 {
		return decimal.NewFromInt(-1)
	}
	return decimal.New(raw, lapTimeExp)
}

func (l *LapTime) Valid() bool {
	return l.LapTime.IsPositive()
}

// Seconds returns the lap time as float for storage in REAL columns.
func (l *LapTime) Seconds() float64 {
	return l.LapTime.InexactFloat64()
}
