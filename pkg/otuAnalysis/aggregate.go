package otuAnalysis

import (
	"os"
	"sort"

	"github.com/liserjrqlxue/goUtil/fmtUtil"
	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
)

// OtherLabel buckets the taxa outside the top-N selection.
const OtherLabel = "Other"

// Group is a composite of all samples sharing a timepoint + treatment key.
// Timepoint and Treatment ride along as separate fields so the collapse
// never has to reconstruct them from the key.
type Group struct {
	Key       string
	Timepoint string
	Treatment string
	Samples   []string
	Counts    map[string]float64
}

// GroupKey derives the composite key of a sample.
func GroupKey(s *Sample) string {
	return s.Timepoint + s.Treatment
}

// Collapse sums counts of all samples sharing a group key. Groups keep the
// order their keys first appear in the sample table.
func (a *Analysis) Collapse() []*Group {
	var groups []*Group
	var byKey = make(map[string]*Group)
	for _, s := range a.Samples {
		var key = GroupKey(s)
		var g, ok = byKey[key]
		if !ok {
			g = &Group{
				Key:       key,
				Timepoint: s.Timepoint,
				Treatment: s.Treatment,
				Counts:    make(map[string]float64, len(a.Taxa)),
			}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.Samples = append(g.Samples, s.ID)
		for _, t := range a.Taxa {
			g.Counts[t.OTU] += a.Counts[s.ID][t.OTU]
		}
	}
	return groups
}

// RelativeAbundance converts each group's counts to percentages of the group
// total. A zero total cannot be normalized and aborts the run.
func RelativeAbundance(groups []*Group) ([]*Group, error) {
	var out = make([]*Group, 0, len(groups))
	for _, g := range groups {
		var total float64
		for _, v := range g.Counts {
			total += v
		}
		if total == 0 {
			return nil, &DivideByZeroError{Row: g.Key}
		}
		var rel = &Group{
			Key:       g.Key,
			Timepoint: g.Timepoint,
			Treatment: g.Treatment,
			Samples:   g.Samples,
			Counts:    make(map[string]float64, len(g.Counts)),
		}
		for k, v := range g.Counts {
			rel.Counts[k] = v / total * 100
		}
		out = append(out, rel)
	}
	return out, nil
}

// CollapseRank re-keys each group's values from OTU to the lineage label at
// the given rank, summing values that share a label.
func (a *Analysis) CollapseRank(groups []*Group, rank string) []*Group {
	var out = make([]*Group, 0, len(groups))
	for _, g := range groups {
		var c = &Group{
			Key:       g.Key,
			Timepoint: g.Timepoint,
			Treatment: g.Treatment,
			Samples:   g.Samples,
			Counts:    make(map[string]float64),
		}
		for otu, v := range g.Counts {
			c.Counts[a.Taxon(otu).Rank(rank)] += v
		}
		out = append(out, c)
	}
	return out
}

// TopTaxa keeps the n labels with the largest total over all groups and sums
// the remainder into the Other bucket, so every group's total is conserved
// exactly. Labels are ranked by total descending, ties broken by lexical
// label order.
func TopTaxa(groups []*Group, n int) ([]string, []*Group) {
	var totals = make(map[string]float64)
	for _, g := range groups {
		for k, v := range g.Counts {
			totals[k] += v
		}
	}
	var labels = make([]string, 0, len(totals))
	for k := range totals {
		labels = append(labels, k)
	}
	sort.Slice(labels, func(i, j int) bool {
		if totals[labels[i]] != totals[labels[j]] {
			return totals[labels[i]] > totals[labels[j]]
		}
		return labels[i] < labels[j]
	})

	if n > len(labels) {
		n = len(labels)
	}
	var top = labels[:n:n]
	var keep = make(map[string]bool, n)
	for _, k := range top {
		keep[k] = true
	}

	var out = make([]*Group, 0, len(groups))
	for _, g := range groups {
		var c = &Group{
			Key:       g.Key,
			Timepoint: g.Timepoint,
			Treatment: g.Treatment,
			Samples:   g.Samples,
			Counts:    make(map[string]float64, n+1),
		}
		for k, v := range g.Counts {
			if keep[k] {
				c.Counts[k] += v
			} else {
				c.Counts[OtherLabel] += v
			}
		}
		out = append(out, c)
	}
	if len(labels) > n {
		top = append(top, OtherLabel)
	}
	return top, out
}

// RankMatrix re-keys per-sample abundance rows (columns in taxonomy order)
// by the lineage label at the given rank, summing columns sharing a label.
// Labels keep their first-appearance order in the taxonomy.
func (a *Analysis) RankMatrix(rows [][]float64, rank string) (labels []string, out [][]float64) {
	var col = make(map[string]int)
	for _, t := range a.Taxa {
		var label = t.Rank(rank)
		if _, ok := col[label]; !ok {
			col[label] = len(labels)
			labels = append(labels, label)
		}
	}
	out = make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(labels))
		for j, t := range a.Taxa {
			out[i][col[t.Rank(rank)]] += row[j]
		}
	}
	return
}

// WriteLong writes the tidy long-form table handed to statistics and
// plotting: one row per group x taxon with the factor columns attached.
func WriteLong(path string, groups []*Group, labels []string) {
	var out = osUtil.Create(path)
	defer simpleUtil.DeferClose(out)
	writeLong(out, groups, labels)
}

func writeLong(out *os.File, groups []*Group, labels []string) {
	fmtUtil.FprintStringArray(out, []string{"group", "timepoint", "treatment", "taxon", "value"}, "\t")
	for _, g := range groups {
		for _, k := range labels {
			fmtUtil.Fprintf(out, "%s\t%s\t%s\t%s\t%f\n", g.Key, g.Timepoint, g.Treatment, k, g.Counts[k])
		}
	}
}
