package models

// Requests for the HTTP read API. Defined in domain for consistency and reuse.

type CohortListRequest struct {
	RunID string `param:"id" json:"id" validate:"required"`
	Trend string `query:"trend" json:"trend" validate:"omitempty,oneof=up down neutral"`
}

type CohortRequest struct {
	RunID  string `param:"id" json:"id" validate:"required"`
	MaxBar int    `query:"max_bar" json:"max_bar" default:"75" validate:"gte=0,lte=500"`
}

type TradeIdeasRequest struct {
	Open      float64 `query:"open" json:"open" validate:"gt=0"`
	High      float64 `query:"high" json:"high" validate:"gt=0,gtefield=Open,gtefield=Close"`
	Low       float64 `query:"low" json:"low" validate:"gt=0,ltefield=Open,ltefield=Close"`
	Close     float64 `query:"close" json:"close" validate:"gt=0"`
	PrevClose float64 `query:"prev_close" json:"prev_close" validate:"gt=0"`
	MA        float64 `query:"ma" json:"ma" validate:"gte=0"`
	ATR       float64 `query:"atr" json:"atr" default:"100" validate:"gt=0"`
}

// Bar returns the request's first bar.
func (r TradeIdeasRequest) Bar() FirstBar {
	return FirstBar{Open: r.Open, High: r.High, Low: r.Low, Close: r.Close}
}

type RunRequest struct {
	Rule    string    `json:"rule" validate:"omitempty,oneof=slope_gated close_vs_ema"`
	Offsets []float64 `json:"offsets" validate:"omitempty,dive,gte=0"`
}
