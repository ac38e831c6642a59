// Package calc defines the contract between the session-aware application
// shell and the trading-risk calculators. The arithmetic lives behind the
// Calculator interface; this package only fixes the input/result shapes and
// their validity rules.
package calc

import "errors"

// Market selects the instrument class a position is calculated for.
type Market string

const (
	MarketStock Market = "stock"
	MarketForex Market = "forex"
)

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

var (
	ErrUnknownMarket = errors.New("calc: unknown market")
	ErrUnknownSide   = errors.New("calc: unknown side")
	// ErrInvalidInput means a price, size, or percentage is out of range.
	ErrInvalidInput = errors.New("calc: invalid input")
)

// PositionInput describes one prospective trade.
type PositionInput struct {
	Market      Market  `json:"market"`
	Side        Side    `json:"side"`
	Symbol      string  `json:"symbol"`
	EntryPrice  float64 `json:"entry_price"`
	ExitPrice   float64 `json:"exit_price"`
	StopLoss    float64 `json:"stop_loss"`
	AccountSize float64 `json:"account_size"`
	// RiskPercent is the fraction of the account risked, in percent (0-100].
	RiskPercent float64 `json:"risk_percent"`
	// LotSize applies to forex only; ignored for stock positions.
	LotSize float64 `json:"lot_size,omitempty"`
}

// Validate reports whether the input is calculable at all. It does not
// judge whether the trade is sensible.
func (in PositionInput) Validate() error {
	switch in.Market {
	case MarketStock, MarketForex:
	default:
		return ErrUnknownMarket
	}
	switch in.Side {
	case SideLong, SideShort:
	default:
		return ErrUnknownSide
	}
	if in.EntryPrice <= 0 || in.ExitPrice <= 0 || in.StopLoss <= 0 {
		return ErrInvalidInput
	}
	if in.AccountSize <= 0 {
		return ErrInvalidInput
	}
	if in.RiskPercent <= 0 || in.RiskPercent > 100 {
		return ErrInvalidInput
	}
	if in.Market == MarketForex && in.LotSize <= 0 {
		return ErrInvalidInput
	}
	return nil
}

// PositionResult is the outcome of sizing one position.
type PositionResult struct {
	// Units is the position size in shares or lots.
	Units float64 `json:"units"`
	// RiskAmount is the currency amount lost if the stop is hit.
	RiskAmount float64 `json:"risk_amount"`
	// ProfitLoss is the currency outcome at the exit price.
	ProfitLoss float64 `json:"profit_loss"`
	// RewardRisk is ProfitLoss divided by RiskAmount.
	RewardRisk float64 `json:"reward_risk"`
}

// Summary aggregates a set of sized positions.
type Summary struct {
	TotalRisk   float64 `json:"total_risk"`
	TotalProfit float64 `json:"total_profit"`
	Positions   int     `json:"positions"`
}

// Calculator computes position sizing and profit/loss for validated inputs.
// Implementations are pure: same input, same result, no I/O.
type Calculator interface {
	// Size computes a single position. Inputs failing Validate are
	// rejected with the corresponding sentinel error.
	Size(in PositionInput) (PositionResult, error)
	// Aggregate folds sized positions into account-level totals.
	Aggregate(results []PositionResult) Summary
}
