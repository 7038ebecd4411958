package standingsservice

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	standingsdb "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/repositories"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// ChartPalette holds the colors used by rendered charts.
type ChartPalette struct {
	Background  drawing.Color
	PrimaryLine drawing.Color
	AccentLine  drawing.Color
	TextColor   drawing.Color
}

// DefaultChartPalette is the dark theme used when no palette is wired.
var DefaultChartPalette = ChartPalette{
	Background:  drawing.Color{R: 24, G: 26, B: 27, A: 255},
	PrimaryLine: drawing.Color{R: 66, G: 133, B: 244, A: 255},
	AccentLine:  drawing.Color{R: 244, G: 180, B: 0, A: 255},
	TextColor:   drawing.Color{R: 222, G: 226, B: 230, A: 255},
}

// RenderRankTrend renders a PNG line chart of the user's rank across the
// season's slates.
func (s *StandingsService) RenderRankTrend(ctx context.Context, seasonID sharedtypes.SeasonID, userID sharedtypes.UserID) ([]byte, error) {
	history, err := s.repo.GetUserRankHistory(ctx, nil, seasonID, userID)
	if err != nil {
		return nil, fmt.Errorf("RenderRankTrend: %w", err)
	}
	return generateRankTrendChart(history, DefaultChartPalette)
}

// generateRankTrendChart produces the PNG. Rank 1 belongs at the top, so
// the Y axis is rendered descending.
func generateRankTrendChart(history []standingsdb.RankHistoryEntry, palette ChartPalette) ([]byte, error) {
	if len(history) == 0 {
		return renderNoDataPlaceholder(palette)
	}

	xValues := make([]time.Time, len(history))
	yValues := make([]float64, len(history))
	for i, entry := range history {
		xValues[i] = entry.Date
		yValues[i] = float64(entry.Rank)
	}

	mainSeries := chart.TimeSeries{
		Name:    "Rank",
		XValues: xValues,
		YValues: yValues,
		Style: chart.Style{
			StrokeColor: palette.PrimaryLine,
			StrokeWidth: 2,
			DotWidth:    4,
			DotColor:    palette.AccentLine,
		},
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{
			Name:           "Slate",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		YAxis: chart.YAxis{
			Name: "Rank",
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
			Range: &chart.ContinuousRange{
				Descending: true,
			},
		},
		Series: []chart.Series{mainSeries},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No rank history found"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		// Render refuses an empty series list, so feed it one it won't draw.
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{0, 1},
				YValues: []float64{0, 0},
				Style:   chart.Hidden(),
			},
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.TextColor)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
