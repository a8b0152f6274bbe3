package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"sltp-overlay/internal/model"
)

// ErrNoCompanion is returned for chart calls while no companion is connected.
var ErrNoCompanion = errors.New("no companion connected")

// DefaultChartTimeout bounds one round trip to the browser-side widget.
const DefaultChartTimeout = 5 * time.Second

// chartCmd is an outbound widget command.
type chartCmd struct {
	Type   string             `json:"type"` // always "chart_cmd"
	ReqID  int64              `json:"req_id"`
	Cmd    string             `json:"cmd"` // create_line|remove_line|line_price|set_label
	LineID model.LineID       `json:"line_id,omitempty"`
	Price  float64            `json:"price,omitempty"`
	Opts   *model.LineOptions `json:"opts,omitempty"`
	Label  string             `json:"label,omitempty"`
}

// chartResult is the companion's reply to a chartCmd.
type chartResult struct {
	ReqID  int64        `json:"req_id"`
	OK     bool         `json:"ok"`
	Error  string       `json:"error,omitempty"`
	LineID model.LineID `json:"line_id,omitempty"`
	Price  float64      `json:"price,omitempty"`
}

// RemoteChart implements model.ChartSurface against the chart widget living
// in the browser. Each call is one request/reply round trip over the
// companion socket; the companion also pushes chart_status messages whenever
// the host page creates or tears down the widget.
type RemoteChart struct {
	hub     *Hub
	timeout time.Duration

	mu      sync.Mutex
	nextReq int64
	pending map[int64]chan chartResult
	avail   bool
}

// NewRemoteChart creates a RemoteChart. Attach it via NewHub.
func NewRemoteChart(timeout time.Duration) *RemoteChart {
	if timeout <= 0 {
		timeout = DefaultChartTimeout
	}
	return &RemoteChart{
		timeout: timeout,
		pending: make(map[int64]chan chartResult),
	}
}

// Available reports whether a companion is connected and the widget exists.
func (c *RemoteChart) Available() bool {
	if c.hub == nil || c.hub.ClientCount() == 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.avail
}

// WaitAvailable polls until the widget shows up, for at most attempts
// probes. Returns false when the budget runs out.
func (c *RemoteChart) WaitAvailable(attempts int, interval time.Duration) bool {
	for i := 0; i < attempts; i++ {
		if c.Available() {
			return true
		}
		time.Sleep(interval)
	}
	log.Printf("[chart] widget not found after %d attempts", attempts)
	return false
}

func (c *RemoteChart) CreateLine(price float64, opts model.LineOptions) (model.LineID, error) {
	res, err := c.call(chartCmd{Cmd: "create_line", Price: price, Opts: &opts})
	if err != nil {
		return "", err
	}
	return res.LineID, nil
}

func (c *RemoteChart) RemoveLine(id model.LineID) error {
	_, err := c.call(chartCmd{Cmd: "remove_line", LineID: id})
	return err
}

func (c *RemoteChart) LinePrice(id model.LineID) (float64, error) {
	res, err := c.call(chartCmd{Cmd: "line_price", LineID: id})
	if err != nil {
		return 0, err
	}
	return res.Price, nil
}

func (c *RemoteChart) SetLineLabel(id model.LineID, text string) error {
	_, err := c.call(chartCmd{Cmd: "set_label", LineID: id, Label: text})
	return err
}

func (c *RemoteChart) call(cmd chartCmd) (chartResult, error) {
	if c.hub == nil {
		return chartResult{}, ErrNoCompanion
	}

	cmd.Type = "chart_cmd"
	ch := make(chan chartResult, 1)

	c.mu.Lock()
	c.nextReq++
	cmd.ReqID = c.nextReq
	c.pending[cmd.ReqID] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, cmd.ReqID)
		c.mu.Unlock()
	}()

	msg, err := json.Marshal(cmd)
	if err != nil {
		return chartResult{}, fmt.Errorf("chart cmd marshal: %w", err)
	}
	if !c.hub.sendToCompanion(msg) {
		return chartResult{}, ErrNoCompanion
	}

	select {
	case res := <-ch:
		if !res.OK {
			return chartResult{}, fmt.Errorf("chart %s: %s", cmd.Cmd, res.Error)
		}
		return res, nil
	case <-time.After(c.timeout):
		return chartResult{}, fmt.Errorf("chart %s: timed out after %s", cmd.Cmd, c.timeout)
	}
}

// resolve delivers a companion reply to the waiting caller.
func (c *RemoteChart) resolve(res chartResult) {
	c.mu.Lock()
	ch, ok := c.pending[res.ReqID]
	c.mu.Unlock()
	if !ok {
		return // caller already timed out
	}
	select {
	case ch <- res:
	default:
	}
}

func (c *RemoteChart) setAvailable(v bool) {
	c.mu.Lock()
	changed := c.avail != v
	c.avail = v
	c.mu.Unlock()
	if changed {
		log.Printf("[chart] widget available=%v", v)
	}
}
