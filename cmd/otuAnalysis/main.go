package main

import (
	"embed"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	util "github.com/arbarno/htrtrphy/pkg/otuAnalysis"

	"github.com/liserjrqlxue/goUtil/simpleUtil"
)

// os
var (
	ex, _  = os.Executable()
	exPath = filepath.Dir(ex)
)

// flag
var (
	workDir = flag.String(
		"w",
		"",
		"workdir",
	)
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
	outputDir = flag.String(
		"o",
		"analysis",
		"output directory",
	)
	blank = flag.String(
		"blank",
		"Blank",
		"blank control sample to remove",
	)
	kingdom = flag.String(
		"kingdom",
		"Bacteria",
		"kingdom to keep",
	)
	rank = flag.String(
		"rank",
		"Order",
		"rank to collapse relative abundance at",
	)
	topN = flag.Int(
		"top",
		12,
		"top N rank groups to keep, rest goes to Other",
	)
	perm = flag.Int(
		"perm",
		999,
		"permutations for PERMANOVA",
	)
	seed = flag.Int64(
		"seed",
		1,
		"permutation seed",
	)
	plot = flag.Bool(
		"plot",
		false,
		"render static figures",
	)
	debug = flag.Bool(
		"debug",
		false,
		"debug",
	)
)

// embed etc
//
//go:embed etc/*.txt
var etcEMFS embed.FS

func main() {
	flag.Parse()
	if *debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	if *workDir != "" {
		simpleUtil.CheckErr(os.Chdir(*workDir))
	}

	var analysis = util.NewAnalysis(*outputDir)
	analysis.BlankSample = *blank
	analysis.TargetKingdom = *kingdom
	analysis.Rank = *rank
	analysis.TopN = *topN
	analysis.Permutations = *perm
	analysis.Seed = *seed
	analysis.Plot = *plot
	analysis.LoadConfig(exPath, etcEMFS)

	if err := analysis.Run(*input, *taxonomy); err != nil {
		log.Fatal(err)
	}
}
