package render

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"fintrack/internal/core"
)

const chartSize = 512

// PieChart renders category totals as a PNG.
func PieChart(s core.Summary) ([]byte, error) {
	if s.IsEmpty() || len(s.ByCategory) == 0 {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(s.ByCategory))
	for _, c := range s.ByCategory {
		values = append(values, chart.Value{Value: c.Amount.Float(), Label: c.Name})
	}

	pie := chart.PieChart{
		Width:  chartSize,
		Height: chartSize,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}
