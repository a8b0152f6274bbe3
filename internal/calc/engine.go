// Package calc is the pure calculation engine: conversions between dollars,
// ticks, and price levels, risk-based contract sizing, and the composite
// evaluation used whenever an order signal or config change triggers a
// recompute. No state, no I/O; all functions are total except the explicit
// division-by-zero guards.
package calc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"sltp-overlay/internal/model"
)

var (
	// ErrZeroTickValue guards every dollars→ticks conversion.
	ErrZeroTickValue = errors.New("tick value cannot be zero")

	// ErrZeroStopDistance guards contract sizing against a stop placed on
	// the entry price.
	ErrZeroStopDistance = errors.New("ticks to stop loss cannot be zero")
)

// ValidationError lists the offending input fields of a rejected Evaluate
// call. Nothing is computed when validation fails.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid inputs: " + strings.Join(e.Fields, ", ")
}

// RiskInDollars resolves the configured risk budget to dollars.
// percent mode: amount/100 * accountSize; fixed mode: amount unchanged.
func RiskInDollars(mode model.RiskMode, amount, accountSize decimal.Decimal) decimal.Decimal {
	if mode == model.RiskPercent {
		return amount.Div(decimal.NewFromInt(100)).Mul(accountSize)
	}
	return amount
}

// DollarsToTicks converts a dollar amount to ticks: |dollars| / tickValue.
func DollarsToTicks(dollars, tickValue decimal.Decimal) (decimal.Decimal, error) {
	if tickValue.IsZero() {
		return decimal.Zero, ErrZeroTickValue
	}
	return dollars.Abs().Div(tickValue), nil
}

// TicksToDollars converts ticks to a dollar amount for the given contract
// count: ticks * tickValue * contracts.
func TicksToDollars(ticks, tickValue decimal.Decimal, contracts int64) decimal.Decimal {
	return ticks.Mul(tickValue).Mul(decimal.NewFromInt(contracts))
}

// StopLossPrice derives the stop level: slDollars worth of ticks away from
// entry, below for long, above for short.
func StopLossPrice(entry, slDollars, tickValue, tickSize decimal.Decimal, side model.Side) (decimal.Decimal, error) {
	ticks, err := DollarsToTicks(slDollars, tickValue)
	if err != nil {
		return decimal.Zero, err
	}
	movement := ticks.Mul(tickSize)
	if side == model.SideLong {
		return entry.Sub(movement), nil
	}
	return entry.Add(movement), nil
}

// TakeProfitPrice derives the target level: tpDollars worth of ticks away
// from entry, above for long, below for short.
func TakeProfitPrice(entry, tpDollars, tickValue, tickSize decimal.Decimal, side model.Side) (decimal.Decimal, error) {
	ticks, err := DollarsToTicks(tpDollars, tickValue)
	if err != nil {
		return decimal.Zero, err
	}
	movement := ticks.Mul(tickSize)
	if side == model.SideLong {
		return entry.Add(movement), nil
	}
	return entry.Sub(movement), nil
}

// ContractsForRisk sizes the position: floor(riskDollars / (ticksToSL * tickValue)).
func ContractsForRisk(riskDollars, ticksToSL, tickValue decimal.Decimal) (int64, error) {
	if ticksToSL.IsZero() {
		return 0, ErrZeroStopDistance
	}
	perContract := ticksToSL.Mul(tickValue)
	if perContract.IsZero() {
		return 0, ErrZeroTickValue
	}
	return riskDollars.Div(perContract).Floor().IntPart(), nil
}

// DollarsFromPriceDelta returns the signed dollar P&L of moving from entry
// to target. The sign follows target - entry: negative when the target is
// below entry.
func DollarsFromPriceDelta(entry, target decimal.Decimal, contracts int64, tickValue, tickSize decimal.Decimal) decimal.Decimal {
	diff := target.Sub(entry)
	ticks := diff.Abs().Div(tickSize)
	dollars := TicksToDollars(ticks, tickValue, contracts)
	if diff.IsNegative() {
		return dollars.Neg()
	}
	return dollars
}

// ApplyRatio derives the take-profit dollars from the stop-loss dollars and
// the configured risk:reward ratio.
func ApplyRatio(slDollars, ratio decimal.Decimal) decimal.Decimal {
	return slDollars.Mul(ratio)
}

// RoundToTick snaps a price onto the instrument's tick grid. Every price
// handed to the chart must pass through this: the widget accepts arbitrary
// floats but lines must sit on valid tick boundaries.
func RoundToTick(price, tickSize decimal.Decimal) decimal.Decimal {
	return price.Div(tickSize).Round(0).Mul(tickSize)
}

// TicksBetween returns |a-b| expressed in ticks.
func TicksBetween(a, b, tickSize decimal.Decimal) decimal.Decimal {
	return a.Sub(b).Abs().Div(tickSize)
}

// Inputs is everything a full bracket evaluation needs.
type Inputs struct {
	RiskMode    model.RiskMode
	RiskAmount  decimal.Decimal // percent or dollars per RiskMode
	AccountSize decimal.Decimal

	EntryPrice decimal.Decimal
	SLDollars  decimal.Decimal
	TPDollars  decimal.Decimal // ignored when UseRatio
	TPRatio    decimal.Decimal
	UseRatio   bool

	TickValue decimal.Decimal
	TickSize  decimal.Decimal
	Side      model.Side
}

// Results is the complete derived bracket: tick-aligned price levels, sized
// contracts, and the dollar risk/profit actually achievable after flooring.
type Results struct {
	RiskDollars decimal.Decimal
	SLDollars   decimal.Decimal
	TPDollars   decimal.Decimal
	SLPrice     decimal.Decimal
	TPPrice     decimal.Decimal
	Contracts   int64
	TicksToSL   decimal.Decimal
	TicksToTP   decimal.Decimal
	ActualRisk  decimal.Decimal
	ActualGain  decimal.Decimal
}

func (in Inputs) validate() error {
	var bad []string
	if !in.EntryPrice.IsPositive() {
		bad = append(bad, "entryPrice")
	}
	if !in.TickValue.IsPositive() {
		bad = append(bad, "tickValue")
	}
	if !in.TickSize.IsPositive() {
		bad = append(bad, "tickSize")
	}
	if !in.RiskAmount.IsPositive() {
		bad = append(bad, "riskAmount")
	}
	if !in.SLDollars.IsPositive() {
		bad = append(bad, "slDollars")
	}
	if in.UseRatio {
		if !in.TPRatio.IsPositive() {
			bad = append(bad, "tpRatio")
		}
	} else if !in.TPDollars.IsPositive() {
		bad = append(bad, "tpDollars")
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}

// Evaluate runs the complete calculation flow: validate, resolve risk,
// derive TP dollars, place and tick-align both levels, size contracts, and
// report the achievable dollar amounts. Fails fast with no partial results.
func Evaluate(in Inputs) (Results, error) {
	if err := in.validate(); err != nil {
		return Results{}, err
	}

	riskDollars := RiskInDollars(in.RiskMode, in.RiskAmount, in.AccountSize)

	tpDollars := in.TPDollars
	if in.UseRatio {
		tpDollars = ApplyRatio(in.SLDollars, in.TPRatio)
	}

	slPrice, err := StopLossPrice(in.EntryPrice, in.SLDollars, in.TickValue, in.TickSize, in.Side)
	if err != nil {
		return Results{}, fmt.Errorf("stop loss: %w", err)
	}
	tpPrice, err := TakeProfitPrice(in.EntryPrice, tpDollars, in.TickValue, in.TickSize, in.Side)
	if err != nil {
		return Results{}, fmt.Errorf("take profit: %w", err)
	}

	slPrice = RoundToTick(slPrice, in.TickSize)
	tpPrice = RoundToTick(tpPrice, in.TickSize)

	ticksToSL := TicksBetween(in.EntryPrice, slPrice, in.TickSize)
	contracts, err := ContractsForRisk(riskDollars, ticksToSL, in.TickValue)
	if err != nil {
		return Results{}, fmt.Errorf("contract sizing: %w", err)
	}
	ticksToTP := TicksBetween(in.EntryPrice, tpPrice, in.TickSize)

	return Results{
		RiskDollars: riskDollars,
		SLDollars:   in.SLDollars,
		TPDollars:   tpDollars,
		SLPrice:     slPrice,
		TPPrice:     tpPrice,
		Contracts:   contracts,
		TicksToSL:   ticksToSL,
		TicksToTP:   ticksToTP,
		ActualRisk:  TicksToDollars(ticksToSL, in.TickValue, contracts),
		ActualGain:  TicksToDollars(ticksToTP, in.TickValue, contracts),
	}, nil
}
