// Package report renders per-plan governance composition charts from the
// resolved tree.
package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/fundops/lookthrough/internal/models"
)

// KeyShare is one governance key's share of a plan's invested value.
type KeyShare struct {
	Label string
	Share float64
}

// CompositionByKey aggregates carrier composition by governance key for one
// (plan, date), sorted largest first for stable rendering.
func CompositionByKey(rows []models.TreeRow, planID, date string) []KeyShare {
	totals := make(map[string]float64)
	for i := range rows {
		row := &rows[i]
		if row.Root.PlanID != planID || row.Root.Date != date {
			continue
		}
		if row.Adjustment || !row.Carrier {
			continue
		}
		totals[row.Governance.Label()] += row.Composition
	}

	shares := make([]KeyShare, 0, len(totals))
	for label, share := range totals {
		shares = append(shares, KeyShare{Label: label, Share: share})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Share != shares[j].Share {
			return shares[i].Share > shares[j].Share
		}
		return shares[i].Label < shares[j].Label
	})
	return shares
}

// RenderCompositionChart renders a PNG bar chart of governance-key
// composition for one (plan, date). Returns raw PNG bytes.
func RenderCompositionChart(planID, date string, shares []KeyShare) ([]byte, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("no composition to chart for plan %s on %s", planID, date)
	}

	bars := make([]chart.Value, len(shares))
	for i, s := range shares {
		bars[i] = chart.Value{
			Label: s.Label,
			Value: s.Share,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("2563eb"), // blue-600
				StrokeColor: drawing.ColorFromHex("2563eb"),
			},
		}
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("Composition by oversight vehicle: %s %s", planID, date),
		Width:    900,
		Height:   400,
		BarWidth: 48,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f*100)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
