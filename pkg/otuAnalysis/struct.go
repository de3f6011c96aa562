package otuAnalysis

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	gzip "github.com/klauspost/pgzip"
	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"
)

// regexp
var (
	isGz = regexp.MustCompile(`\.gz$`)
)

// factor levels, ordered
var (
	TimepointLevels = []string{"T0", "T1", "T2", "none"}
	TreatmentLevels = []string{"Control", "Rotifers", "BMC", "BMC_rotifers", "none"}
)

// TaxRanks lists the lineage columns of the taxonomy table, kingdom to species.
var TaxRanks = []string{"Kingdom", "Phylum", "Class", "Order", "Family", "Genus", "Species"}

// ParseError reports a malformed input table.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s:%d: %s", e.File, e.Line, e.Msg)
}

// JoinError reports identifiers with no match in the named table.
type JoinError struct {
	Table string
	IDs   []string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("join: no match in %s table for [%s]", e.Table, strings.Join(e.IDs, ", "))
}

// DivideByZeroError reports a zero total during percentage normalization.
type DivideByZeroError struct {
	Row string
}

func (e *DivideByZeroError) Error() string {
	return fmt.Sprintf("relative abundance: zero total for %s", e.Row)
}

// EmptyResultError reports a stage fed less data than it can work on.
type EmptyResultError struct {
	Stage string
	Msg   string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Msg)
}

type Sample struct {
	ID        string
	Timepoint string
	Treatment string
}

type Taxonomy struct {
	OTU     string
	Kingdom string
	Phylum  string
	Class   string
	Order   string
	Family  string
	Genus   string
	Species string
}

// Rank returns the lineage label at the named rank.
func (t *Taxonomy) Rank(rank string) string {
	switch rank {
	case "Kingdom":
		return t.Kingdom
	case "Phylum":
		return t.Phylum
	case "Class":
		return t.Class
	case "Order":
		return t.Order
	case "Family":
		return t.Family
	case "Genus":
		return t.Genus
	case "Species":
		return t.Species
	}
	return ""
}

// Lineage joins the rank labels kingdom to species.
func (t *Taxonomy) Lineage() string {
	return strings.Join(
		[]string{t.Kingdom, t.Phylum, t.Class, t.Order, t.Family, t.Genus, t.Species},
		";",
	)
}

// Exclusion pairs a taxonomic rank with a lineage label removed from the dataset.
type Exclusion struct {
	Rank  string
	Label string
}

// Analysis holds the composite dataset and every derived stage result.
// Counts is keyed by sample then OTU identifier so alignment between the
// matrix, sample metadata and taxonomy is by key, never by position.
type Analysis struct {
	OutputPrefix string
	OtuPrefix    string

	BlankSample   string
	TargetKingdom string
	Rank          string
	TopN          int
	Permutations  int
	Seed          int64
	Plot          bool

	Exclusions []Exclusion

	Sheets    map[string]string
	SheetList []string

	Samples []*Sample
	Taxa    []*Taxonomy
	Counts  map[string]map[string]float64

	sampleIndex map[string]int
	taxIndex    map[string]int
	otuOrder    []string

	Groups     []*Group
	RelGroups  []*Group
	RankGroups []*Group
	TopLabels  []string
	Alpha      []*AlphaDiversity

	Anova      []*AnovaResult
	Pairwise   []*PairwiseComparison
	Bray       *mat.SymDense
	BrayIDs    []string
	Ord        *Ordination
	Adonis     []*PermanovaResult
	SimperPair []string
	SimperRes  map[string][]*SimperEntry

	xlsx *excelize.File
}

// defaultSheets is overridden by LoadConfig when an etc/sheet.txt is found.
var defaultSheets = [][2]string{
	{"alpha", "Alpha Diversity"},
	{"relabund", "Relative Abundance"},
	{"bray", "Bray-Curtis"},
	{"pcoa", "PCoA"},
	{"permanova", "PERMANOVA"},
	{"simper", "SIMPER"},
}

func NewAnalysis(outputPrefix string) *Analysis {
	var a = &Analysis{
		OutputPrefix:  outputPrefix,
		OtuPrefix:     "Otu",
		BlankSample:   "Blank",
		TargetKingdom: "Bacteria",
		Rank:          "Order",
		TopN:          12,
		Permutations:  999,
		Seed:          1,
		Sheets:        make(map[string]string),
		Counts:        make(map[string]map[string]float64),
		sampleIndex:   make(map[string]int),
		taxIndex:      make(map[string]int),
	}
	for _, s := range defaultSheets {
		a.Sheets[s[0]] = s[1]
		a.SheetList = append(a.SheetList, s[1])
	}
	return a
}

// readTable reads a tab-delimited table, gz aware. All rows must carry the
// header's column count.
func readTable(path string) (rows [][]string, err error) {
	var file = osUtil.Open(path)
	defer simpleUtil.DeferClose(file)

	var reader io.Reader = file
	if isGz.MatchString(path) {
		gzr, err := gzip.NewReader(file)
		if err != nil {
			return nil, &ParseError{File: path, Line: 0, Msg: err.Error()}
		}
		defer simpleUtil.DeferClose(gzr)
		reader = gzr
	}

	var scanner = bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)

	var n = 0
	var width = 0
	for scanner.Scan() {
		n++
		var line = strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		var fields = strings.Split(line, "\t")
		if width == 0 {
			width = len(fields)
		} else if len(fields) != width {
			return nil, &ParseError{
				File: path,
				Line: n,
				Msg:  fmt.Sprintf("expect %d columns, got %d", width, len(fields)),
			}
		}
		rows = append(rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{File: path, Line: n, Msg: err.Error()}
	}
	if len(rows) < 2 {
		return nil, &ParseError{File: path, Line: n, Msg: "no data rows"}
	}
	return rows, nil
}

func validLevel(v string, levels []string) bool {
	for _, l := range levels {
		if v == l {
			return true
		}
	}
	return false
}

// LoadAbundance reads the sample metadata + OTU count table. Leading columns
// are sample, timepoint and treatment; every following column name must carry
// the OTU prefix.
func (a *Analysis) LoadAbundance(path string) error {
	rows, err := readTable(path)
	if err != nil {
		return err
	}

	var title = rows[0]
	if len(title) < 4 ||
		!strings.EqualFold(title[0], "sample") ||
		!strings.EqualFold(title[1], "timepoint") ||
		!strings.EqualFold(title[2], "treatment") {
		return &ParseError{
			File: path,
			Line: 1,
			Msg:  "header must start with sample, timepoint, treatment followed by abundance columns",
		}
	}
	var seen = make(map[string]bool, len(title)-3)
	for _, col := range title[3:] {
		if !strings.HasPrefix(col, a.OtuPrefix) {
			return &ParseError{
				File: path,
				Line: 1,
				Msg:  fmt.Sprintf("abundance column %q lacks prefix %q", col, a.OtuPrefix),
			}
		}
		if seen[col] {
			return &ParseError{File: path, Line: 1, Msg: "duplicate abundance column " + col}
		}
		seen[col] = true
	}
	a.otuOrder = append([]string{}, title[3:]...)

	for i, row := range rows[1:] {
		var line = i + 2
		var sample = &Sample{ID: row[0], Timepoint: row[1], Treatment: row[2]}
		if _, ok := a.sampleIndex[sample.ID]; ok {
			return &ParseError{File: path, Line: line, Msg: "duplicate sample " + sample.ID}
		}
		if !validLevel(sample.Timepoint, TimepointLevels) {
			return &ParseError{
				File: path,
				Line: line,
				Msg:  fmt.Sprintf("timepoint %q not in %v", sample.Timepoint, TimepointLevels),
			}
		}
		if !validLevel(sample.Treatment, TreatmentLevels) {
			return &ParseError{
				File: path,
				Line: line,
				Msg:  fmt.Sprintf("treatment %q not in %v", sample.Treatment, TreatmentLevels),
			}
		}

		var counts = make(map[string]float64, len(a.otuOrder))
		for j, v := range row[3:] {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return &ParseError{
					File: path,
					Line: line,
					Msg:  fmt.Sprintf("bad count %q for %s", v, title[3+j]),
				}
			}
			counts[a.otuOrder[j]] = float64(n)
		}

		a.sampleIndex[sample.ID] = len(a.Samples)
		a.Samples = append(a.Samples, sample)
		a.Counts[sample.ID] = counts
	}
	return nil
}

// LoadTaxonomy reads the OTU taxonomy table: an OTU column then one column
// per rank, kingdom to species.
func (a *Analysis) LoadTaxonomy(path string) error {
	rows, err := readTable(path)
	if err != nil {
		return err
	}

	var title = rows[0]
	if len(title) != len(TaxRanks)+1 || !strings.EqualFold(title[0], "OTU") {
		return &ParseError{
			File: path,
			Line: 1,
			Msg:  "header must be OTU followed by " + strings.Join(TaxRanks, ", "),
		}
	}
	for i, rank := range TaxRanks {
		if !strings.EqualFold(title[i+1], rank) {
			return &ParseError{
				File: path,
				Line: 1,
				Msg:  fmt.Sprintf("rank column %d is %q, expect %q", i+1, title[i+1], rank),
			}
		}
	}

	for i, row := range rows[1:] {
		if _, ok := a.taxIndex[row[0]]; ok {
			return &ParseError{File: path, Line: i + 2, Msg: "duplicate OTU " + row[0]}
		}
		var t = &Taxonomy{
			OTU:     row[0],
			Kingdom: row[1],
			Phylum:  row[2],
			Class:   row[3],
			Order:   row[4],
			Family:  row[5],
			Genus:   row[6],
			Species: row[7],
		}
		a.taxIndex[t.OTU] = len(a.Taxa)
		a.Taxa = append(a.Taxa, t)
	}
	return nil
}

// Join verifies that the abundance matrix and the taxonomy table reference
// exactly the same OTU identifiers, then aligns the taxonomy rows to the
// matrix column order.
func (a *Analysis) Join() error {
	var missing []string
	for _, otu := range a.otuOrder {
		if _, ok := a.taxIndex[otu]; !ok {
			missing = append(missing, otu)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &JoinError{Table: "taxonomy", IDs: missing}
	}

	var inMatrix = make(map[string]bool, len(a.otuOrder))
	for _, otu := range a.otuOrder {
		inMatrix[otu] = true
	}
	for _, t := range a.Taxa {
		if !inMatrix[t.OTU] {
			missing = append(missing, t.OTU)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &JoinError{Table: "abundance", IDs: missing}
	}

	var taxa = make([]*Taxonomy, len(a.otuOrder))
	for i, otu := range a.otuOrder {
		taxa[i] = a.Taxa[a.taxIndex[otu]]
	}
	a.Taxa = taxa
	a.taxIndex = make(map[string]int, len(taxa))
	for i, t := range taxa {
		a.taxIndex[t.OTU] = i
	}
	return nil
}

// Taxon returns the taxonomy row joined to an OTU identifier.
func (a *Analysis) Taxon(otu string) *Taxonomy {
	i, ok := a.taxIndex[otu]
	if !ok {
		return nil
	}
	return a.Taxa[i]
}

// Matrix returns sample identifiers and the count matrix with rows in sample
// order and columns in taxonomy order.
func (a *Analysis) Matrix() (ids []string, rows [][]float64) {
	for _, s := range a.Samples {
		ids = append(ids, s.ID)
		var row = make([]float64, len(a.Taxa))
		for j, t := range a.Taxa {
			row[j] = a.Counts[s.ID][t.OTU]
		}
		rows = append(rows, row)
	}
	return
}
