package otuAnalysis

import (
	"github.com/cloudflare/ahocorasick"
)

// Filter steps remove whole rows and never alter surviving values. Each step
// returns the number of rows it removed; zero matches is a valid outcome.

// RemoveSample drops the sample with the exact identifier.
func (a *Analysis) RemoveSample(id string) int {
	i, ok := a.sampleIndex[id]
	if !ok {
		return 0
	}
	a.Samples = append(a.Samples[:i:i], a.Samples[i+1:]...)
	delete(a.Counts, id)
	a.sampleIndex = make(map[string]int, len(a.Samples))
	for j, s := range a.Samples {
		a.sampleIndex[s.ID] = j
	}
	return 1
}

// KeepKingdom drops every OTU whose kingdom differs from the target.
func (a *Analysis) KeepKingdom(kingdom string) int {
	var drop = make(map[string]bool)
	for _, t := range a.Taxa {
		if t.Kingdom != kingdom {
			drop[t.OTU] = true
		}
	}
	return a.removeTaxa(drop)
}

// RemoveZeroOTUs drops OTUs whose total count over the surviving samples is
// zero.
func (a *Analysis) RemoveZeroOTUs() int {
	var drop = make(map[string]bool)
	for _, t := range a.Taxa {
		var total float64
		for _, s := range a.Samples {
			total += a.Counts[s.ID][t.OTU]
		}
		if total == 0 {
			drop[t.OTU] = true
		}
	}
	return a.removeTaxa(drop)
}

// ExcludeLineages drops OTUs whose lineage label at the given rank equals an
// excluded label. The joined lineage is pre-screened with an Aho-Corasick
// matcher over the unique labels, then hits are confirmed by exact rank
// equality so a label appearing as a substring elsewhere in the lineage does
// not match. One label may be excluded at several ranks.
func (a *Analysis) ExcludeLineages(excl []Exclusion) int {
	if len(excl) == 0 {
		return 0
	}
	var patterns []string
	var byLabel = make(map[string][]Exclusion)
	for _, e := range excl {
		if _, ok := byLabel[e.Label]; !ok {
			patterns = append(patterns, e.Label)
		}
		byLabel[e.Label] = append(byLabel[e.Label], e)
	}
	var matcher = ahocorasick.NewStringMatcher(patterns)

	var drop = make(map[string]bool)
	for _, t := range a.Taxa {
		for _, hit := range matcher.Match([]byte(t.Lineage())) {
			for _, e := range byLabel[patterns[hit]] {
				if t.Rank(e.Rank) == e.Label {
					drop[t.OTU] = true
					break
				}
			}
		}
	}
	return a.removeTaxa(drop)
}

func (a *Analysis) removeTaxa(drop map[string]bool) int {
	if len(drop) == 0 {
		return 0
	}
	var kept = make([]*Taxonomy, 0, len(a.Taxa)-len(drop))
	for _, t := range a.Taxa {
		if !drop[t.OTU] {
			kept = append(kept, t)
		}
	}
	a.Taxa = kept
	a.taxIndex = make(map[string]int, len(kept))
	a.otuOrder = a.otuOrder[:0]
	for i, t := range kept {
		a.taxIndex[t.OTU] = i
		a.otuOrder = append(a.otuOrder, t.OTU)
	}
	for _, counts := range a.Counts {
		for otu := range drop {
			delete(counts, otu)
		}
	}
	return len(drop)
}
