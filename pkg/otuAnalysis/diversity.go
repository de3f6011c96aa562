package otuAnalysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// AlphaDiversity holds the within-sample diversity indices of one sample.
type AlphaDiversity struct {
	Sample    string
	Timepoint string
	Treatment string

	Observed   int
	Shannon    float64
	InvSimpson float64
	Chao1      float64
}

// AlphaDiversity computes per-sample diversity indices over the filtered
// counts.
func (a *Analysis) AlphaDiversity() ([]*AlphaDiversity, error) {
	if len(a.Samples) == 0 {
		return nil, &EmptyResultError{Stage: "alpha diversity", Msg: "no samples left after filtering"}
	}
	var out = make([]*AlphaDiversity, 0, len(a.Samples))
	_, rows := a.Matrix()
	for i, s := range a.Samples {
		out = append(out, &AlphaDiversity{
			Sample:     s.ID,
			Timepoint:  s.Timepoint,
			Treatment:  s.Treatment,
			Observed:   Observed(rows[i]),
			Shannon:    Shannon(rows[i]),
			InvSimpson: InvSimpson(rows[i]),
			Chao1:      Chao1(rows[i]),
		})
	}
	return out, nil
}

// Observed counts taxa with non-zero abundance.
func Observed(counts []float64) int {
	var n int
	for _, v := range counts {
		if v > 0 {
			n++
		}
	}
	return n
}

// Shannon returns the Shannon index of a count vector.
func Shannon(counts []float64) float64 {
	var total = floats.Sum(counts)
	if total == 0 {
		return 0
	}
	var p = make([]float64, len(counts))
	for i, v := range counts {
		p[i] = v / total
	}
	return stat.Entropy(p)
}

// InvSimpson returns the inverse Simpson index of a count vector.
func InvSimpson(counts []float64) float64 {
	var total = floats.Sum(counts)
	if total == 0 {
		return 0
	}
	var sum float64
	for _, v := range counts {
		p := v / total
		sum += p * p
	}
	return 1 / sum
}

// Chao1 returns the bias-corrected Chao1 richness estimate of a count
// vector.
func Chao1(counts []float64) float64 {
	var sobs, f1, f2 float64
	for _, v := range counts {
		switch {
		case v == 0:
		case v == 1:
			sobs++
			f1++
		case v == 2:
			sobs++
			f2++
		default:
			sobs++
		}
	}
	return sobs + f1*(f1-1)/(2*(f2+1))
}

// BrayCurtis builds the pairwise Bray-Curtis dissimilarity matrix of the
// abundance rows. Two all-zero rows get distance zero.
func BrayCurtis(rows [][]float64) (*mat.SymDense, error) {
	var n = len(rows)
	if n < 2 {
		return nil, &EmptyResultError{Stage: "bray-curtis", Msg: "need at least two rows"}
	}
	var d = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var num, den float64
			for k := range rows[i] {
				x, y := rows[i][k], rows[j][k]
				if x > y {
					num += x - y
				} else {
					num += y - x
				}
				den += x + y
			}
			if den > 0 {
				d.SetSym(i, j, num/den)
			}
		}
	}
	return d, nil
}

// RelativeRows converts each count row to percentages of its total. A zero
// row cannot be normalized.
func RelativeRows(ids []string, rows [][]float64) ([][]float64, error) {
	var out = make([][]float64, len(rows))
	for i, row := range rows {
		var total = floats.Sum(row)
		if total == 0 {
			return nil, &DivideByZeroError{Row: ids[i]}
		}
		var rel = make([]float64, len(row))
		for j, v := range row {
			rel[j] = v / total * 100
		}
		out[i] = rel
	}
	return out, nil
}
