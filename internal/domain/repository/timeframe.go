package repository

// Timeframe represents the bar interval of a series.
type Timeframe string

const (
	TF5m   Timeframe = "5m"
	TF30m  Timeframe = "30m"
	TF120m Timeframe = "120m"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF5m, TF30m, TF120m:
		return true
	default:
		return false
	}
}
