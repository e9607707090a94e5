package model

import "errors"

// Failure taxonomy for the evaluation pipeline. Per-pair failures carry one
// of these and are excluded from the cycle output; they never abort the cycle.
var (
	ErrUnparseableSymbol     = errors.New("unparseable symbol")
	ErrInsufficientLiquidity = errors.New("insufficient order book liquidity")
	ErrNoCommonNetwork       = errors.New("no common withdrawal network")
	ErrStaleData             = errors.New("quote data is stale")
	ErrInvalidPrice          = errors.New("invalid price")
	ErrBelowVolumeFloor      = errors.New("24h volume below floor")
	ErrSpreadTooLow          = errors.New("spread below minimum threshold")
	ErrSpreadTooHigh         = errors.New("spread above maximum threshold")
	ErrSlippageExceeded      = errors.New("slippage exceeds cap")
	ErrROITooLow             = errors.New("ROI below minimum")
	ErrNotProfitable         = errors.New("not profitable after fees")
)

// RejectReason is the typed reason attached to a rejected candidate.
type RejectReason string

const (
	RejectInvalidPrice     RejectReason = "invalid_price"
	RejectBelowVolumeFloor RejectReason = "below_volume_floor"
	RejectSpreadTooLow     RejectReason = "spread_too_low"
	RejectSpreadTooHigh    RejectReason = "spread_too_high"
	RejectNoCommonNetwork  RejectReason = "no_common_network"
	RejectSlippageExceeded RejectReason = "slippage_exceeded"
	RejectROITooLow        RejectReason = "roi_too_low"
	RejectStaleData        RejectReason = "stale_data"
	RejectNotProfitable    RejectReason = "not_profitable"
)

// Err maps a reject reason back to its sentinel error.
func (r RejectReason) Err() error {
	switch r {
	case RejectInvalidPrice:
		return ErrInvalidPrice
	case RejectBelowVolumeFloor:
		return ErrBelowVolumeFloor
	case RejectSpreadTooLow:
		return ErrSpreadTooLow
	case RejectSpreadTooHigh:
		return ErrSpreadTooHigh
	case RejectNoCommonNetwork:
		return ErrNoCommonNetwork
	case RejectSlippageExceeded:
		return ErrSlippageExceeded
	case RejectROITooLow:
		return ErrROITooLow
	case RejectStaleData:
		return ErrStaleData
	case RejectNotProfitable:
		return ErrNotProfitable
	}
	return nil
}

// Rejection records why a candidate pair was excluded from a cycle.
type Rejection struct {
	Pair   CanonicalPair
	Reason RejectReason
	Detail string
}
