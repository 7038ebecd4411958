package standingsservice

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// ExportSlateStandings renders a slate's standings as an xlsx workbook
// with one "Standings" sheet, ordered the way the table ranks them.
func (s *StandingsService) ExportSlateStandings(ctx context.Context, slateID sharedtypes.SlateID) ([]byte, error) {
	stats, err := s.repo.GetStatsForSlate(ctx, nil, slateID)
	if err != nil {
		return nil, fmt.Errorf("ExportSlateStandings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Standings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("ExportSlateStandings: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Rank", "User", "Moneyline Correct", "Prop Correct", "Slate Points", "Season Points", "Rank Change"}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("ExportSlateStandings: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("ExportSlateStandings: %w", err)
		}
	}

	for i, stat := range stats {
		row := i + 2
		rankChange := ""
		if stat.RankChange != nil {
			rankChange = fmt.Sprintf("%+d", *stat.RankChange)
		}
		values := []any{
			stat.Rank,
			string(stat.UserID),
			stat.MoneylineCorrect,
			stat.PropCorrect,
			int(stat.SlatePoints),
			int(stat.SeasonPoints),
			rankChange,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("ExportSlateStandings: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("ExportSlateStandings: %w", err)
			}
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ExportSlateStandings: %w", err)
	}
	return buffer.Bytes(), nil
}
