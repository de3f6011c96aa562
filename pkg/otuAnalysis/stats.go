package otuAnalysis

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// The estimators and distributions below all come from gonum; this file
// only reshapes matrices and grouping factors into their inputs.

// AnovaResult is a one-way ANOVA over a value grouped by a factor.
type AnovaResult struct {
	Factor    string
	F         float64
	P         float64
	DFBetween int
	DFWithin  int
}

// OneWayANOVA tests whether the group means of values differ. groups holds
// the factor level of each value.
func OneWayANOVA(factor string, values []float64, groups []string) (*AnovaResult, error) {
	var byGroup = splitByGroup(values, groups)
	var a = len(byGroup)
	var n = len(values)
	if a < 2 {
		return nil, &EmptyResultError{Stage: "anova", Msg: "need at least two groups"}
	}
	if n-a < 1 {
		return nil, &EmptyResultError{Stage: "anova", Msg: "no within-group degrees of freedom"}
	}

	var grand = stat.Mean(values, nil)
	var ssb, ssw float64
	for _, vs := range byGroup {
		var m = stat.Mean(vs, nil)
		ssb += float64(len(vs)) * (m - grand) * (m - grand)
		for _, v := range vs {
			ssw += (v - m) * (v - m)
		}
	}

	var dfb = a - 1
	var dfw = n - a
	var f = (ssb / float64(dfb)) / (ssw / float64(dfw))
	var fdist = distuv.F{D1: float64(dfb), D2: float64(dfw)}
	return &AnovaResult{
		Factor:    factor,
		F:         f,
		P:         fdist.Survival(f),
		DFBetween: dfb,
		DFWithin:  dfw,
	}, nil
}

// PairwiseComparison is a Welch two-sample t test between two factor levels.
type PairwiseComparison struct {
	A, B string
	T    float64
	P    float64
}

// PairwiseWelch runs Welch t tests between every pair of factor levels, as
// the post-hoc step after OneWayANOVA.
func PairwiseWelch(values []float64, groups []string) ([]*PairwiseComparison, error) {
	var byGroup = splitByGroup(values, groups)
	if len(byGroup) < 2 {
		return nil, &EmptyResultError{Stage: "pairwise", Msg: "need at least two groups"}
	}
	var levels = make([]string, 0, len(byGroup))
	for k := range byGroup {
		levels = append(levels, k)
	}
	sort.Strings(levels)

	var out []*PairwiseComparison
	for i := 0; i < len(levels); i++ {
		for j := i + 1; j < len(levels); j++ {
			var x = byGroup[levels[i]]
			var y = byGroup[levels[j]]
			if len(x) < 2 || len(y) < 2 {
				continue
			}
			var mx, vx = stat.MeanVariance(x, nil)
			var my, vy = stat.MeanVariance(y, nil)
			var sx = vx / float64(len(x))
			var sy = vy / float64(len(y))
			var se = math.Sqrt(sx + sy)
			if se == 0 {
				continue
			}
			var t = (mx - my) / se
			// Welch-Satterthwaite degrees of freedom.
			var nu = (sx + sy) * (sx + sy) /
				(sx*sx/float64(len(x)-1) + sy*sy/float64(len(y)-1))
			var tdist = distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
			out = append(out, &PairwiseComparison{
				A: levels[i],
				B: levels[j],
				T: t,
				P: 2 * tdist.Survival(math.Abs(t)),
			})
		}
	}
	return out, nil
}

func splitByGroup(values []float64, groups []string) map[string][]float64 {
	var byGroup = make(map[string][]float64)
	for i, v := range values {
		byGroup[groups[i]] = append(byGroup[groups[i]], v)
	}
	return byGroup
}

// Ordination is a principal-coordinates embedding of a distance matrix.
type Ordination struct {
	Coords    [][]float64 // row per sample, column per axis
	Explained []float64   // percent of variation per axis
}

// PCoA embeds the distance matrix into k principal coordinates via Gower
// double-centering and a symmetric eigendecomposition. Axes with
// non-positive eigenvalues are not reported.
func PCoA(d *mat.SymDense, k int) (*Ordination, error) {
	var n = d.SymmetricDim()
	if n < 3 {
		return nil, &EmptyResultError{Stage: "pcoa", Msg: "need at least three rows"}
	}

	// B = -J (d^2 / 2) J with J the centering matrix.
	var a = make([][]float64, n)
	var rowMean = make([]float64, n)
	var grand float64
	for i := 0; i < n; i++ {
		a[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			v := d.At(i, j)
			a[i][j] = -0.5 * v * v
			rowMean[i] += a[i][j]
		}
		rowMean[i] /= float64(n)
		grand += rowMean[i]
	}
	grand /= float64(n)

	var b = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			b.SetSym(i, j, a[i][j]-rowMean[i]-rowMean[j]+grand)
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(b, true) {
		return nil, &EmptyResultError{Stage: "pcoa", Msg: "eigendecomposition failed"}
	}
	var vals = eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues come back ascending; walk them from the top. Values at
	// floating-point noise level do not make an axis.
	var largest = vals[len(vals)-1]
	if largest <= 0 {
		return nil, &EmptyResultError{Stage: "pcoa", Msg: "no positive eigenvalues"}
	}
	var tol = largest * 1e-9
	var posSum float64
	for _, v := range vals {
		if v > tol {
			posSum += v
		}
	}

	var ord = &Ordination{Coords: make([][]float64, n)}
	for i := range ord.Coords {
		ord.Coords[i] = make([]float64, 0, k)
	}
	for axis := 0; axis < k; axis++ {
		var idx = len(vals) - 1 - axis
		if idx < 0 || vals[idx] <= tol {
			break
		}
		var scale = math.Sqrt(vals[idx])
		for i := 0; i < n; i++ {
			ord.Coords[i] = append(ord.Coords[i], vecs.At(i, idx)*scale)
		}
		ord.Explained = append(ord.Explained, vals[idx]/posSum*100)
	}
	return ord, nil
}

// PermanovaResult is a permutation-based multivariate test of a grouping
// factor over a distance matrix.
type PermanovaResult struct {
	Factor       string
	F            float64
	R2           float64
	P            float64
	Permutations int
}

// Permanova computes the pseudo-F of the grouping factor on the distance
// matrix and its significance by permuting group labels.
func Permanova(factor string, d *mat.SymDense, groups []string, perms int, seed int64) (*PermanovaResult, error) {
	var n = d.SymmetricDim()
	if n != len(groups) {
		return nil, &JoinError{Table: "grouping factor", IDs: []string{factor}}
	}
	var levels = make(map[string]bool)
	for _, g := range groups {
		levels[g] = true
	}
	if len(levels) < 2 || len(levels) >= n {
		return nil, &EmptyResultError{Stage: "permanova", Msg: "need at least two groups and replication"}
	}

	var f = pseudoF(d, groups)
	var sst, ssw = sumsOfSquares(d, groups)
	var r2 = (sst - ssw) / sst

	var rng = rand.New(rand.NewSource(seed))
	var hits = 0
	var perm = make([]string, n)
	for p := 0; p < perms; p++ {
		for i, j := range rng.Perm(n) {
			perm[i] = groups[j]
		}
		if pseudoF(d, perm) >= f {
			hits++
		}
	}
	return &PermanovaResult{
		Factor:       factor,
		F:            f,
		R2:           r2,
		P:            float64(hits+1) / float64(perms+1),
		Permutations: perms,
	}, nil
}

func sumsOfSquares(d *mat.SymDense, groups []string) (sst, ssw float64) {
	var n = d.SymmetricDim()
	var sizes = make(map[string]float64)
	var within = make(map[string]float64)
	for _, g := range groups {
		sizes[g]++
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := d.At(i, j)
			sst += v * v
			if groups[i] == groups[j] {
				within[groups[i]] += v * v
			}
		}
	}
	sst /= float64(n)
	for g, ss := range within {
		ssw += ss / sizes[g]
	}
	return
}

func pseudoF(d *mat.SymDense, groups []string) float64 {
	var sst, ssw = sumsOfSquares(d, groups)
	var levels = make(map[string]bool)
	for _, g := range groups {
		levels[g] = true
	}
	var a = float64(len(levels))
	var n = float64(len(groups))
	return ((sst - ssw) / (a - 1)) / (ssw / (n - a))
}

// SimperEntry is one taxon's share of the average dissimilarity between two
// groups.
type SimperEntry struct {
	Taxon        string
	Contribution float64 // percent of the average Bray-Curtis dissimilarity
	Cumulative   float64
}

// Simper decomposes the average Bray-Curtis dissimilarity between two sets
// of abundance rows into per-taxon contributions, sorted descending with a
// running cumulative percentage.
func Simper(labels []string, x, y [][]float64) ([]*SimperEntry, error) {
	if len(x) == 0 || len(y) == 0 {
		return nil, &EmptyResultError{Stage: "simper", Msg: "empty group"}
	}

	var contrib = make([]float64, len(labels))
	for _, xi := range x {
		for _, yj := range y {
			var den float64
			for k := range labels {
				den += xi[k] + yj[k]
			}
			if den == 0 {
				continue
			}
			for k := range labels {
				contrib[k] += math.Abs(xi[k]-yj[k]) / den
			}
		}
	}
	var pairs = float64(len(x) * len(y))
	var total float64
	for k := range contrib {
		contrib[k] /= pairs
		total += contrib[k]
	}
	if total == 0 {
		return nil, &EmptyResultError{Stage: "simper", Msg: "groups are identical"}
	}

	var out = make([]*SimperEntry, len(labels))
	for k, label := range labels {
		out[k] = &SimperEntry{Taxon: label, Contribution: contrib[k] / total * 100}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Contribution != out[j].Contribution {
			return out[i].Contribution > out[j].Contribution
		}
		return out[i].Taxon < out[j].Taxon
	})
	var cum float64
	for _, e := range out {
		cum += e.Contribution
		e.Cumulative = cum
	}
	return out, nil
}
