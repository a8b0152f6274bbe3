package dragsync

import (
	"testing"

	"github.com/shopspring/decimal"

	"sltp-overlay/internal/model"
)

type fakeChart struct {
	prices map[model.LineID]float64
	labels map[model.LineID]string
}

func (c *fakeChart) Available() bool { return true }

func (c *fakeChart) CreateLine(price float64, opts model.LineOptions) (model.LineID, error) {
	return "", nil
}

func (c *fakeChart) RemoveLine(model.LineID) error { return nil }

func (c *fakeChart) LinePrice(id model.LineID) (float64, error) {
	return c.prices[id], nil
}

func (c *fakeChart) SetLineLabel(id model.LineID, text string) error {
	c.labels[id] = text
	return nil
}

type staticView struct{ v model.BracketView }

func (s *staticView) BracketView() model.BracketView { return s.v }

type collector struct{ events []model.OrderEvent }

func (c *collector) Submit(ev model.OrderEvent) { c.events = append(c.events, ev) }

func mnqView() model.BracketView {
	return model.BracketView{
		Rendered: true,
		Symbol:   "MNQ",
		Entry:    decimal.NewFromInt(21450),
		Quantity: 2,
		SLLineID: "sl-1",
		TPLineID: "tp-1",
		SLPrice:  decimal.NewFromInt(21400),
		TPPrice:  decimal.NewFromInt(21550),
	}
}

func TestPollOnce_SubToleranceMoveIgnored(t *testing.T) {
	// 0.4 ticks on MNQ (tickSize 0.25) is 0.1 points.
	chart := &fakeChart{
		prices: map[model.LineID]float64{"sl-1": 21400.1, "tp-1": 21550},
		labels: make(map[model.LineID]string),
	}
	sink := &collector{}
	d := New(chart, &staticView{v: mnqView()}, sink, 0)

	d.pollOnce()

	if len(sink.events) != 0 {
		t.Fatalf("got %d drag events for a 0.4-tick move, want 0", len(sink.events))
	}
	// Labels still refresh on every poll.
	if chart.labels["sl-1"] == "" {
		t.Error("expected SL label refreshed")
	}
}

func TestPollOnce_DragPastTolerance(t *testing.T) {
	// 0.6 ticks = 0.15 points.
	chart := &fakeChart{
		prices: map[model.LineID]float64{"sl-1": 21400.15, "tp-1": 21550},
		labels: make(map[model.LineID]string),
	}
	sink := &collector{}
	d := New(chart, &staticView{v: mnqView()}, sink, 0)

	d.pollOnce()

	if len(sink.events) != 1 {
		t.Fatalf("got %d drag events, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if ev.Kind != model.EventLineDrag || ev.Line != model.LineSL {
		t.Errorf("event = %s/%s, want line_drag/sl", ev.Kind, ev.Line)
	}
	if !ev.LinePrice.Equal(decimal.RequireFromString("21400.15")) {
		t.Errorf("price = %s, want 21400.15", ev.LinePrice)
	}
}

func TestPollOnce_LabelFormat(t *testing.T) {
	chart := &fakeChart{
		prices: map[model.LineID]float64{"sl-1": 21400, "tp-1": 21550},
		labels: make(map[model.LineID]string),
	}
	d := New(chart, &staticView{v: mnqView()}, &collector{}, 0)

	d.pollOnce()

	// 50 points below entry = 200 ticks * $0.50 * 2 contracts = $200.
	if got := chart.labels["sl-1"]; got != "SL -$200 (2x)" {
		t.Errorf("SL label = %q, want %q", got, "SL -$200 (2x)")
	}
	if got := chart.labels["tp-1"]; got != "TP +$400 (2x)" {
		t.Errorf("TP label = %q, want %q", got, "TP +$400 (2x)")
	}
}

func TestPollOnce_NothingRendered(t *testing.T) {
	sink := &collector{}
	d := New(&fakeChart{}, &staticView{}, sink, 0)
	d.pollOnce()
	if len(sink.events) != 0 {
		t.Fatal("no events expected without a rendered bracket")
	}
}
