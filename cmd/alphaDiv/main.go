// alphaDiv prints per-sample alpha diversity indices of the filtered
// dataset on stdout.
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
	blank = flag.String(
		"blank",
		"Blank",
		"blank control sample to remove",
	)
)

func main() {
	flag.Parse()

	var analysis = util.NewAnalysis(".")
	analysis.BlankSample = *blank
	analysis.Exclusions = []util.Exclusion{
		{Rank: "Order", Label: "Chloroplast"},
		{Rank: "Family", Label: "Mitochondria"},
	}

	if err := analysis.Load(*input, *taxonomy); err != nil {
		log.Fatal(err)
	}
	analysis.Filter()

	alpha, err := analysis.AlphaDiversity()
	if err != nil {
		log.Fatal(err)
	}

	fmtUtil.FprintStringArray(os.Stdout, []string{"sample", "timepoint", "treatment", "observed", "shannon", "invsimpson", "chao1"}, "\t")
	for _, d := range alpha {
		fmtUtil.Fprintf(os.Stdout, "%s\t%s\t%s\t%d\t%f\t%f\t%f\n", d.Sample, d.Timepoint, d.Treatment, d.Observed, d.Shannon, d.InvSimpson, d.Chao1)
	}
}
