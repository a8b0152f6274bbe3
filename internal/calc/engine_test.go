package calc

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"sltp-overlay/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRiskInDollars(t *testing.T) {
	got := RiskInDollars(model.RiskPercent, dec("2"), dec("50000"))
	if !got.Equal(dec("1000")) {
		t.Errorf("percent: got %s, want 1000", got)
	}

	got = RiskInDollars(model.RiskFixed, dec("500"), dec("999999"))
	if !got.Equal(dec("500")) {
		t.Errorf("fixed: got %s, want 500", got)
	}
}

func TestDollarsToTicks(t *testing.T) {
	ticks, err := DollarsToTicks(dec("100"), dec("0.50"))
	if err != nil {
		t.Fatal(err)
	}
	if !ticks.Equal(dec("200")) {
		t.Errorf("got %s ticks, want 200", ticks)
	}

	// Negative dollars convert on absolute value.
	ticks, err = DollarsToTicks(dec("-100"), dec("0.50"))
	if err != nil {
		t.Fatal(err)
	}
	if !ticks.Equal(dec("200")) {
		t.Errorf("abs: got %s ticks, want 200", ticks)
	}

	if _, err := DollarsToTicks(dec("100"), decimal.Zero); !errors.Is(err, ErrZeroTickValue) {
		t.Errorf("zero tick value: got %v, want ErrZeroTickValue", err)
	}
}

func TestStopLossAndTakeProfit_Long(t *testing.T) {
	// Entry 21450, $100 SL at $0.50/tick, 0.25 tick size → 200 ticks → 50 pts.
	sl, err := StopLossPrice(dec("21450"), dec("100"), dec("0.50"), dec("0.25"), model.SideLong)
	if err != nil {
		t.Fatal(err)
	}
	if !sl.Equal(dec("21400")) {
		t.Errorf("SL = %s, want 21400", sl)
	}

	tp, err := TakeProfitPrice(dec("21450"), dec("200"), dec("0.50"), dec("0.25"), model.SideLong)
	if err != nil {
		t.Fatal(err)
	}
	if !tp.Equal(dec("21550")) {
		t.Errorf("TP = %s, want 21550", tp)
	}
}

func TestStopLossAndTakeProfit_Short(t *testing.T) {
	sl, err := StopLossPrice(dec("21450"), dec("100"), dec("0.50"), dec("0.25"), model.SideShort)
	if err != nil {
		t.Fatal(err)
	}
	if !sl.Equal(dec("21500")) {
		t.Errorf("SL = %s, want 21500", sl)
	}

	tp, err := TakeProfitPrice(dec("21450"), dec("200"), dec("0.50"), dec("0.25"), model.SideShort)
	if err != nil {
		t.Fatal(err)
	}
	if !tp.Equal(dec("21350")) {
		t.Errorf("TP = %s, want 21350", tp)
	}
}

func TestStopLossSitsOnTickGrid(t *testing.T) {
	cases := []struct {
		entry, slDollars, tickValue, tickSize string
		side                                  model.Side
	}{
		{"21450", "100", "0.50", "0.25", model.SideLong},
		{"21450", "100", "0.50", "0.25", model.SideShort},
		{"2375.4", "150", "10.00", "0.10", model.SideLong},
		{"5850.16", "75", "1.25", "0.25", model.SideShort},
	}
	for _, c := range cases {
		sl, err := StopLossPrice(dec(c.entry), dec(c.slDollars), dec(c.tickValue), dec(c.tickSize), c.side)
		if err != nil {
			t.Fatal(err)
		}
		rounded := RoundToTick(sl, dec(c.tickSize))
		// Multiple of tickSize from zero.
		if !rounded.Div(dec(c.tickSize)).Equal(rounded.Div(dec(c.tickSize)).Round(0)) {
			t.Errorf("entry=%s side=%s: %s not on %s grid", c.entry, c.side, rounded, c.tickSize)
		}
		entry := dec(c.entry)
		if c.side == model.SideLong && !rounded.LessThan(entry) {
			t.Errorf("long SL %s not below entry %s", rounded, entry)
		}
		if c.side == model.SideShort && !rounded.GreaterThan(entry) {
			t.Errorf("short SL %s not above entry %s", rounded, entry)
		}
	}
}

func TestDrawdownRoundTrip(t *testing.T) {
	entry, slDollars := dec("21450"), dec("100")
	tickValue, tickSize := dec("0.50"), dec("0.25")

	sl, err := StopLossPrice(entry, slDollars, tickValue, tickSize, model.SideLong)
	if err != nil {
		t.Fatal(err)
	}
	pl := DollarsFromPriceDelta(entry, sl, 1, tickValue, tickSize)
	// One tick of rounding slack.
	diff := pl.Add(slDollars).Abs()
	if diff.GreaterThan(tickValue) {
		t.Errorf("long round-trip: P&L %s, want ≈ -%s", pl, slDollars)
	}
	if !pl.IsNegative() {
		t.Errorf("long SL P&L should be negative, got %s", pl)
	}

	sl, err = StopLossPrice(entry, slDollars, tickValue, tickSize, model.SideShort)
	if err != nil {
		t.Fatal(err)
	}
	pl = DollarsFromPriceDelta(entry, sl, 1, tickValue, tickSize)
	if !pl.IsPositive() {
		t.Errorf("short SL sits above entry, delta sign should be positive, got %s", pl)
	}
}

func TestContractsForRisk(t *testing.T) {
	n, err := ContractsForRisk(dec("1000"), dec("200"), dec("0.50"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 {
		t.Errorf("got %d contracts, want 10", n)
	}

	// Flooring: $999 risk over $100/contract → 9.
	n, err = ContractsForRisk(dec("999"), dec("200"), dec("0.50"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 9 {
		t.Errorf("got %d contracts, want 9", n)
	}

	if _, err := ContractsForRisk(dec("1000"), decimal.Zero, dec("0.50")); !errors.Is(err, ErrZeroStopDistance) {
		t.Errorf("zero stop distance: got %v, want ErrZeroStopDistance", err)
	}
}

func TestApplyRatio(t *testing.T) {
	if got := ApplyRatio(dec("100"), dec("2")); !got.Equal(dec("200")) {
		t.Errorf("got %s, want 200", got)
	}
	if got := ApplyRatio(dec("150"), dec("3")); !got.Equal(dec("450")) {
		t.Errorf("got %s, want 450", got)
	}
}

func TestRoundToTick(t *testing.T) {
	cases := []struct{ price, tickSize, want string }{
		{"21450.37", "0.25", "21450.25"},
		{"21450.13", "0.25", "21450.25"},
		{"5850.04", "0.25", "5850.00"},
		{"2375.44", "0.10", "2375.40"},
	}
	for _, c := range cases {
		if got := RoundToTick(dec(c.price), dec(c.tickSize)); !got.Equal(dec(c.want)) {
			t.Errorf("RoundToTick(%s, %s) = %s, want %s", c.price, c.tickSize, got, c.want)
		}
	}
}

func TestTicksBetween(t *testing.T) {
	if got := TicksBetween(dec("21450"), dec("21400"), dec("0.25")); !got.Equal(dec("200")) {
		t.Errorf("got %s, want 200", got)
	}
}

func TestEvaluate_LongScenario(t *testing.T) {
	res, err := Evaluate(Inputs{
		RiskMode:    model.RiskPercent,
		RiskAmount:  dec("2"),
		AccountSize: dec("50000"),
		EntryPrice:  dec("21450"),
		SLDollars:   dec("100"),
		TPRatio:     dec("2"),
		UseRatio:    true,
		TickValue:   dec("0.50"),
		TickSize:    dec("0.25"),
		Side:        model.SideLong,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.SLPrice.Equal(dec("21400")) {
		t.Errorf("SL = %s, want 21400", res.SLPrice)
	}
	if !res.TPPrice.Equal(dec("21550")) {
		t.Errorf("TP = %s, want 21550", res.TPPrice)
	}
	if !res.TPDollars.Equal(dec("200")) {
		t.Errorf("TP dollars = %s, want 200", res.TPDollars)
	}
	if res.Contracts != 10 {
		t.Errorf("contracts = %d, want 10", res.Contracts)
	}
	if !res.ActualRisk.Equal(dec("1000")) {
		t.Errorf("actual risk = %s, want 1000", res.ActualRisk)
	}
}

func TestEvaluate_ShortScenario(t *testing.T) {
	res, err := Evaluate(Inputs{
		RiskMode:    model.RiskPercent,
		RiskAmount:  dec("2"),
		AccountSize: dec("50000"),
		EntryPrice:  dec("21450"),
		SLDollars:   dec("100"),
		TPRatio:     dec("2"),
		UseRatio:    true,
		TickValue:   dec("0.50"),
		TickSize:    dec("0.25"),
		Side:        model.SideShort,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.SLPrice.Equal(dec("21500")) {
		t.Errorf("SL = %s, want 21500", res.SLPrice)
	}
	if !res.TPPrice.Equal(dec("21350")) {
		t.Errorf("TP = %s, want 21350", res.TPPrice)
	}
}

func TestEvaluate_RejectsBadInputsListingFields(t *testing.T) {
	_, err := Evaluate(Inputs{
		RiskMode:    model.RiskFixed,
		RiskAmount:  dec("500"),
		AccountSize: dec("50000"),
		EntryPrice:  decimal.Zero, // bad
		SLDollars:   dec("-5"),    // bad
		TPDollars:   dec("200"),
		TickValue:   dec("0.50"),
		TickSize:    dec("0.25"),
		Side:        model.SideLong,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *ValidationError", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("fields = %v, want [entryPrice slDollars]", verr.Fields)
	}
	if verr.Fields[0] != "entryPrice" || verr.Fields[1] != "slDollars" {
		t.Errorf("fields = %v, want [entryPrice slDollars]", verr.Fields)
	}
}
