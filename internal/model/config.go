package model

import "github.com/shopspring/decimal"

// RiskMode selects how the per-trade risk budget is derived.
type RiskMode string

const (
	RiskPercent RiskMode = "percent" // riskPercent% of accountSize
	RiskFixed   RiskMode = "fixed"   // riskFixed dollars flat
)

// RiskConfig is the user-editable risk and rendering configuration.
// Loaded at session start, replaced wholesale on explicit user save.
// Rendering fields do not affect calculation semantics.
type RiskConfig struct {
	RiskMode    RiskMode        `json:"risk_mode"`
	RiskPercent decimal.Decimal `json:"risk_percent"`
	RiskFixed   decimal.Decimal `json:"risk_fixed"`
	AccountSize decimal.Decimal `json:"account_size"`

	DefaultSL decimal.Decimal `json:"default_sl"` // dollars per contract
	DefaultTP decimal.Decimal `json:"default_tp"` // dollars per contract
	TPRatio   decimal.Decimal `json:"tp_ratio"`
	UseRatio  bool            `json:"use_ratio"` // TP = DefaultSL * TPRatio when set

	SLColor    string `json:"sl_color"`
	TPColor    string `json:"tp_color"`
	LineWidth  int    `json:"line_width"`
	ShowLabels bool   `json:"show_labels"`
}

// RiskAmount returns the configured amount for the active risk mode.
func (c *RiskConfig) RiskAmount() decimal.Decimal {
	if c.RiskMode == RiskPercent {
		return c.RiskPercent
	}
	return c.RiskFixed
}
