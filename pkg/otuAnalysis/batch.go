package otuAnalysis

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
)

// LoadConfig reads the sheet-name map and the default lineage exclusions
// from etc, embedded or beside the executable.
func (a *Analysis) LoadConfig(exPath string, cfgFS embed.FS) {
	var sheetMap, _ = osUtil.FS2MapArray(osUtil.OpenFS("etc/sheet.txt", exPath, cfgFS), "\t", nil)
	if len(sheetMap) > 0 {
		a.Sheets = make(map[string]string, len(sheetMap))
		a.SheetList = a.SheetList[:0]
	}
	for _, m := range sheetMap {
		a.Sheets[m["Name"]] = m["SheetName"]
		a.SheetList = append(a.SheetList, m["SheetName"])
	}

	var exclMap, _ = osUtil.FS2MapArray(osUtil.OpenFS("etc/exclude.txt", exPath, cfgFS), "\t", nil)
	for _, m := range exclMap {
		a.Exclusions = append(a.Exclusions, Exclusion{Rank: m["Rank"], Label: m["Label"]})
	}
}

// Load reads both input tables and joins them into the composite dataset.
func (a *Analysis) Load(abundance, taxonomy string) error {
	if err := a.LoadAbundance(abundance); err != nil {
		return err
	}
	if err := a.LoadTaxonomy(taxonomy); err != nil {
		return err
	}
	if err := a.Join(); err != nil {
		return err
	}
	slog.Info("Load", "samples", len(a.Samples), "otus", len(a.Taxa))
	return nil
}

// Filter runs the four removal steps in order.
func (a *Analysis) Filter() {
	slog.Info("Filter", "blank", a.RemoveSample(a.BlankSample))
	slog.Info("Filter", "nonTargetKingdom", a.KeepKingdom(a.TargetKingdom))
	slog.Info("Filter", "excludedLineages", a.ExcludeLineages(a.Exclusions))
	slog.Info("Filter", "zeroOTUs", a.RemoveZeroOTUs())
}

// Aggregate collapses replicates into group composites, converts to
// percentages and keeps the top-N rank groups.
func (a *Analysis) Aggregate() error {
	a.Groups = a.Collapse()
	rel, err := RelativeAbundance(a.Groups)
	if err != nil {
		return err
	}
	a.RelGroups = rel
	a.TopLabels, a.RankGroups = TopTaxa(a.CollapseRank(rel, a.Rank), a.TopN)
	slog.Info("Aggregate", "groups", len(a.Groups), "taxa", len(a.TopLabels))

	WriteLong(filepath.Join(a.OutputPrefix, "relative_abundance.long.txt"), a.RankGroups, a.TopLabels)
	return nil
}

func (a *Analysis) factor(name string) []string {
	var out = make([]string, len(a.Samples))
	for i, s := range a.Samples {
		if name == "timepoint" {
			out[i] = s.Timepoint
		} else {
			out[i] = s.Treatment
		}
	}
	return out
}

// AlphaStats computes per-sample indices and the treatment comparison of the
// Shannon index.
func (a *Analysis) AlphaStats() error {
	alpha, err := a.AlphaDiversity()
	if err != nil {
		return err
	}
	a.Alpha = alpha

	var shannon = make([]float64, len(alpha))
	for i, d := range alpha {
		shannon[i] = d.Shannon
	}
	for _, factor := range []string{"treatment", "timepoint"} {
		r, err := OneWayANOVA(factor, shannon, a.factor(factor))
		if err != nil {
			return err
		}
		a.Anova = append(a.Anova, r)
		slog.Info("AlphaStats", "factor", factor, "F", r.F, "P", r.P)
	}
	a.Pairwise, err = PairwiseWelch(shannon, a.factor("treatment"))
	return err
}

// BetaStats computes the Bray-Curtis matrix, the PCoA embedding, the
// PERMANOVA of both factors and the treatment-pair SIMPER decompositions.
func (a *Analysis) BetaStats() error {
	ids, rows := a.Matrix()
	relRows, err := RelativeRows(ids, rows)
	if err != nil {
		return err
	}

	a.Bray, err = BrayCurtis(relRows)
	if err != nil {
		return err
	}
	a.BrayIDs = ids

	a.Ord, err = PCoA(a.Bray, 2)
	if err != nil {
		return err
	}

	for _, factor := range []string{"treatment", "timepoint"} {
		r, err := Permanova(factor, a.Bray, a.factor(factor), a.Permutations, a.Seed)
		if err != nil {
			return err
		}
		a.Adonis = append(a.Adonis, r)
		slog.Info("BetaStats", "factor", factor, "F", r.F, "R2", r.R2, "P", r.P)
	}

	labels, rankRows := a.RankMatrix(relRows, a.Rank)
	var byTreatment = make(map[string][][]float64)
	for i, s := range a.Samples {
		byTreatment[s.Treatment] = append(byTreatment[s.Treatment], rankRows[i])
	}
	var levels []string
	for l := range byTreatment {
		levels = append(levels, l)
	}
	sort.Strings(levels)

	a.SimperRes = make(map[string][]*SimperEntry)
	for i := 0; i < len(levels); i++ {
		for j := i + 1; j < len(levels); j++ {
			entries, err := Simper(labels, byTreatment[levels[i]], byTreatment[levels[j]])
			if err != nil {
				return err
			}
			var pair = levels[i] + " vs " + levels[j]
			a.SimperPair = append(a.SimperPair, pair)
			a.SimperRes[pair] = entries
		}
	}
	return nil
}

// Visual renders the three figures when plotting is on.
func (a *Analysis) Visual() error {
	PlotRelAbundBar(filepath.Join(a.OutputPrefix, "relative_abundance.html"), a.Rank, a.TopLabels, a.RankGroups)
	if !a.Plot {
		slog.Info("Visual", "skip", "static figures, rerun with -plot")
		return nil
	}
	if err := PlotAlphaBox(filepath.Join(a.OutputPrefix, "alpha_shannon.png"), a.Alpha); err != nil {
		return err
	}
	return PlotPCoA(filepath.Join(a.OutputPrefix, "pcoa.png"), a.Samples, a.Ord)
}

// Run executes the whole pipeline: load, join, filter, aggregate,
// statistics, workbook and figures.
func (a *Analysis) Run(abundance, taxonomy string) error {
	now := time.Now()

	simpleUtil.CheckErr(os.MkdirAll(a.OutputPrefix, 0755))

	if err := a.Load(abundance, taxonomy); err != nil {
		return err
	}
	a.Filter()
	if err := a.Aggregate(); err != nil {
		return err
	}
	if err := a.AlphaStats(); err != nil {
		return err
	}
	if err := a.BetaStats(); err != nil {
		return err
	}

	a.WriteSummaryXlsx(filepath.Join(a.OutputPrefix, fmt.Sprintf("%s.summary.xlsx", filepath.Base(a.OutputPrefix))))
	if err := a.Visual(); err != nil {
		return err
	}

	slog.Info("Done", "time", time.Since(now))
	return nil
}
