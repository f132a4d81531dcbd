package usecase

import (
	"context"
	"fmt"

	"SessionEdge/internal/domain/models"
	"SessionEdge/internal/services/probability"
	applogger "SessionEdge/pkg/logger"
)

// TradeIdeasUseCase builds a trade plan from an opening bar.
type TradeIdeasUseCase struct {
	gen *probability.Generator
	log *applogger.Logger
}

func NewTradeIdeasUseCase(gen *probability.Generator, l *applogger.Logger) *TradeIdeasUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &TradeIdeasUseCase{gen: gen, log: l}
}

// Generate validates the bar and returns the plan. A zero ATR falls back to
// the generator default.
func (uc *TradeIdeasUseCase) Generate(ctx context.Context, req models.TradeIdeasRequest) (models.TradePlan, error) {
	if err := ctx.Err(); err != nil {
		return models.TradePlan{}, err
	}
	bar := req.Bar()
	if bar.High < bar.Low {
		return models.TradePlan{}, fmt.Errorf("high %.2f below low %.2f", bar.High, bar.Low)
	}
	if bar.Open > bar.High || bar.Open < bar.Low || bar.Close > bar.High || bar.Close < bar.Low {
		return models.TradePlan{}, fmt.Errorf("open/close outside the bar range")
	}
	if req.PrevClose <= 0 {
		return models.TradePlan{}, fmt.Errorf("previous close must be positive")
	}
	plan := uc.gen.Generate(bar, req.PrevClose, req.MA, req.ATR)
	best := "none"
	if plan.Best != nil {
		best = string(plan.Best.Strategy)
	}
	uc.log.Debug("trade plan generated",
		applogger.String("direction", string(plan.Context.Direction)),
		applogger.String("best", best))
	return plan, nil
}
