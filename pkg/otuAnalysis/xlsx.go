package otuAnalysis

import (
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/xuri/excelize/v2"
)

func SetRow(xlsx *excelize.File, sheet string, col, row int, value []interface{}) {
	simpleUtil.CheckErr(
		xlsx.SetSheetRow(
			sheet,
			simpleUtil.HandleError(excelize.CoordinatesToCellName(col, row)),
			&value,
		),
	)
}

func SetCellValue(xlsx *excelize.File, sheet string, col, row int, value interface{}) {
	simpleUtil.CheckErr(
		xlsx.SetCellValue(
			sheet,
			simpleUtil.HandleError(excelize.CoordinatesToCellName(col, row)),
			value,
		),
	)
}

// WriteSummaryXlsx writes every stage result into one workbook, one sheet
// per result table.
func (a *Analysis) WriteSummaryXlsx(path string) {
	a.xlsx = excelize.NewFile()
	for _, sheet := range a.SheetList {
		simpleUtil.HandleError(a.xlsx.NewSheet(sheet))
	}
	simpleUtil.CheckErr(a.xlsx.DeleteSheet("Sheet1"))

	a.writeAlphaSheet(a.Sheets["alpha"])
	a.writeRelAbundSheet(a.Sheets["relabund"])
	a.writeBraySheet(a.Sheets["bray"])
	a.writePCoASheet(a.Sheets["pcoa"])
	a.writePermanovaSheet(a.Sheets["permanova"])
	a.writeSimperSheet(a.Sheets["simper"])

	simpleUtil.CheckErr(a.xlsx.SaveAs(path))
	a.xlsx = nil
}

func (a *Analysis) writeAlphaSheet(sheet string) {
	SetRow(a.xlsx, sheet, 1, 1, []interface{}{"Sample", "Timepoint", "Treatment", "Observed", "Shannon", "InvSimpson", "Chao1"})
	for i, d := range a.Alpha {
		SetRow(a.xlsx, sheet, 1, i+2, []interface{}{d.Sample, d.Timepoint, d.Treatment, d.Observed, d.Shannon, d.InvSimpson, d.Chao1})
	}
	var row = len(a.Alpha) + 3
	SetRow(a.xlsx, sheet, 1, row, []interface{}{"Factor", "F", "P", "DFBetween", "DFWithin"})
	for i, r := range a.Anova {
		SetRow(a.xlsx, sheet, 1, row+1+i, []interface{}{r.Factor, r.F, r.P, r.DFBetween, r.DFWithin})
	}
	row += len(a.Anova) + 2
	SetRow(a.xlsx, sheet, 1, row, []interface{}{"A", "B", "t", "P"})
	for i, c := range a.Pairwise {
		SetRow(a.xlsx, sheet, 1, row+1+i, []interface{}{c.A, c.B, c.T, c.P})
	}
}

func (a *Analysis) writeRelAbundSheet(sheet string) {
	var title = []interface{}{"Group", "Timepoint", "Treatment"}
	for _, label := range a.TopLabels {
		title = append(title, label)
	}
	SetRow(a.xlsx, sheet, 1, 1, title)
	for i, g := range a.RankGroups {
		var row = []interface{}{g.Key, g.Timepoint, g.Treatment}
		for _, label := range a.TopLabels {
			row = append(row, g.Counts[label])
		}
		SetRow(a.xlsx, sheet, 1, i+2, row)
	}
}

func (a *Analysis) writeBraySheet(sheet string) {
	if a.Bray == nil {
		return
	}
	var title = []interface{}{""}
	for _, id := range a.BrayIDs {
		title = append(title, id)
	}
	SetRow(a.xlsx, sheet, 1, 1, title)
	for i, id := range a.BrayIDs {
		var row = []interface{}{id}
		for j := range a.BrayIDs {
			row = append(row, a.Bray.At(i, j))
		}
		SetRow(a.xlsx, sheet, 1, i+2, row)
	}
}

func (a *Analysis) writePCoASheet(sheet string) {
	if a.Ord == nil {
		return
	}
	SetRow(a.xlsx, sheet, 1, 1, []interface{}{"Sample", "Timepoint", "Treatment", "PCo1", "PCo2"})
	for i, s := range a.Samples {
		var row = []interface{}{s.ID, s.Timepoint, s.Treatment}
		for _, v := range a.Ord.Coords[i] {
			row = append(row, v)
		}
		SetRow(a.xlsx, sheet, 1, i+2, row)
	}
	var row = len(a.Samples) + 3
	SetRow(a.xlsx, sheet, 1, row, []interface{}{"Explained%"})
	for i, v := range a.Ord.Explained {
		SetCellValue(a.xlsx, sheet, i+2, row, v)
	}
}

func (a *Analysis) writePermanovaSheet(sheet string) {
	SetRow(a.xlsx, sheet, 1, 1, []interface{}{"Factor", "F", "R2", "P", "Permutations"})
	for i, r := range a.Adonis {
		SetRow(a.xlsx, sheet, 1, i+2, []interface{}{r.Factor, r.F, r.R2, r.P, r.Permutations})
	}
}

func (a *Analysis) writeSimperSheet(sheet string) {
	SetRow(a.xlsx, sheet, 1, 1, []interface{}{"Comparison", "Taxon", "Contribution%", "Cumulative%"})
	var row = 2
	for _, pair := range a.SimperPair {
		for _, e := range a.SimperRes[pair] {
			SetRow(a.xlsx, sheet, 1, row, []interface{}{pair, e.Taxon, e.Contribution, e.Cumulative})
			row++
		}
	}
}
