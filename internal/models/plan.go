package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Plan is a fixed monthly fee option a resident can pick during the
// WhatsApp conversation.
type Plan struct {
	Code  string
	Label string
	Price decimal.Decimal
}

// planCatalog is the closed set of plan codes accepted by SELECT_PLAN.
var planCatalog = []Plan{
	{Code: "1", Label: "Individual", Price: decimal.NewFromFloat(70.00)},
	{Code: "2", Label: "2 pessoas", Price: decimal.NewFromFloat(90.00)},
	{Code: "3", Label: "4 pessoas", Price: decimal.NewFromFloat(100.00)},
}

// LookupPlan returns the plan for a code, or false for anything outside
// the catalog.
func LookupPlan(code string) (Plan, bool) {
	for _, p := range planCatalog {
		if p.Code == code {
			return p, true
		}
	}
	return Plan{}, false
}

// PlanMenu renders the selection lines shown in the SELECT_PLAN prompt.
func PlanMenu() string {
	var b strings.Builder
	for i, p := range planCatalog {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s️⃣ %s - R$ %s", p.Code, p.Label, formatBRL(p.Price))
	}
	return b.String()
}

// formatBRL renders an amount with comma decimal separator (pt-BR)
func formatBRL(d decimal.Decimal) string {
	return strings.ReplaceAll(d.StringFixed(2), ".", ",")
}
