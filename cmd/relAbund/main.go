// relAbund prints the group-level relative abundance table at a taxonomic
// rank, top-N groups plus Other, as a tidy long-form table on stdout.
package main

import (
	"flag"
	"log"
	"os"

	util "github.com/arbarno/htrtrphy/pkg/otuAnalysis"

	"github.com/liserjrqlxue/goUtil/fmtUtil"
)

// flag
var (
	input = flag.String(
		"i",
		"abundance.txt",
		"sample metadata + OTU count table",
	)
	taxonomy = flag.String(
		"t",
		"taxonomy.txt",
		"OTU taxonomy table",
	)
	rank = flag.String(
		"rank",
		"Order",
		"rank to collapse at",
	)
	topN = flag.Int(
		"top",
		12,
		"top N rank groups to keep",
	)
)

func main() {
	flag.Parse()

	var analysis = util.NewAnalysis(".")
	analysis.Rank = *rank
	analysis.TopN = *topN
	analysis.Exclusions = []util.Exclusion{
		{Rank: "Order", Label: "Chloroplast"},
		{Rank: "Family", Label: "Mitochondria"},
	}

	if err := analysis.Load(*input, *taxonomy); err != nil {
		log.Fatal(err)
	}
	analysis.Filter()

	rel, err := util.RelativeAbundance(analysis.Collapse())
	if err != nil {
		log.Fatal(err)
	}
	labels, groups := util.TopTaxa(analysis.CollapseRank(rel, *rank), *topN)

	fmtUtil.FprintStringArray(os.Stdout, []string{"group", "timepoint", "treatment", "taxon", "value"}, "\t")
	for _, g := range groups {
		for _, k := range labels {
			fmtUtil.Fprintf(os.Stdout, "%s\t%s\t%s\t%s\t%f\n", g.Key, g.Timepoint, g.Treatment, k, g.Counts[k])
		}
	}
}
