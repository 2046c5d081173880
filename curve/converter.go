package curve

import (
	"math"
	"sort"
)

// AbscissaConverter maps a continuous abscissa x along a helix to real
// nucleotide indices and back. A fake converter scales linearly; it is
// used before a helix has been discretized.
//
// A real converter reads the parameter value of every nucleotide. Time is
// counted from nucleotide 0, and x is time scaled by SquarePerTime.
type AbscissaConverter struct {
	nuclTime      []float64
	nbNegative    int
	squarePerTime float64
	normalization float64
}

// FakeConverter scales x by normalization.
func FakeConverter(normalization float64) AbscissaConverter {
	return AbscissaConverter{normalization: normalization}
}

// NewAbscissaConverter builds a real converter from the sorted parameter
// values of the nucleotides of a helix; the first nbNegative of them have
// negative indices. With fewer than 2 values, a fake converter of scale 1
// is returned.
func NewAbscissaConverter(nuclTime []float64, nbNegative int) AbscissaConverter {
	if len(nuclTime) < 2 {
		tracer().Debugf("abscissa converter on %d nucleotides, using a linear one", len(nuclTime))
		return FakeConverter(1)
	}
	conv := AbscissaConverter{nuclTime: nuclTime, nbNegative: nbNegative}
	n := len(nuclTime)
	// average time per nucleotide, over the count of nucleotides
	avg := (nuclTime[n-1] - nuclTime[0]) / float64(n)
	conv.squarePerTime = 1 / avg
	if n >= 3 {
		dmin := math.Inf(1)
		for i := 1; i < n; i++ {
			dmin = math.Min(dmin, nuclTime[i]-nuclTime[i-1])
		}
		if dmin/avg < 1./3 {
			conv.squarePerTime = 1. / 3 / dmin
		}
	}
	return conv
}

// IsFake is true for linear converters.
func (conv AbscissaConverter) IsFake() bool {
	return conv.nuclTime == nil
}

// SquarePerTime is the scale between time and abscissa. For fake
// converters it is the inverse normalization.
func (conv AbscissaConverter) SquarePerTime() float64 {
	if conv.IsFake() {
		return 1 / conv.normalization
	}
	return conv.squarePerTime
}

// timeNucl is the time of index i, extrapolated with the boundary deltas.
func (conv AbscissaConverter) timeNucl(i int) float64 {
	nt := conv.nuclTime
	n := len(nt)
	switch {
	case i < 0:
		return nt[0] + float64(i)*(nt[1]-nt[0])
	case i >= n:
		return nt[n-1] + float64(i-n+1)*(nt[n-1]-nt[n-2])
	}
	return nt[i]
}

func (conv AbscissaConverter) origin() float64 {
	return conv.timeNucl(conv.nbNegative)
}

// NuclToX is the abscissa of nucleotide n.
func (conv AbscissaConverter) NuclToX(n int) float64 {
	if conv.IsFake() {
		return float64(n) / conv.normalization
	}
	return (conv.timeNucl(n+conv.nbNegative) - conv.origin()) * conv.squarePerTime
}

// XToNucl is the real nucleotide index at abscissa x.
func (conv AbscissaConverter) XToNucl(x float64) float64 {
	if conv.IsFake() {
		return x * conv.normalization
	}
	time := x/conv.squarePerTime + conv.origin()
	nt := conv.nuclTime
	n := len(nt)
	var i float64
	switch {
	case time < nt[0]:
		i = (time - nt[0]) / (nt[1] - nt[0])
	case time >= nt[n-1]:
		i = float64(n-1) + (time-nt[n-1])/(nt[n-1]-nt[n-2])
	default:
		k := locate(nt, time)
		i = float64(k) + (time-nt[k])/(nt[k+1]-nt[k])
	}
	return i - float64(conv.nbNegative)
}

// locate finds k with nt[k] <= time < nt[k+1]: galloping from the start
// to bracket the cell, then binary search within the bracket.
func locate(nt []float64, time float64) int {
	hi := 1
	for hi < len(nt) && nt[hi] <= time {
		hi *= 2
	}
	lo := hi / 2
	if hi > len(nt) {
		hi = len(nt)
	}
	k := lo + sort.Search(hi-lo, func(j int) bool { return nt[lo+j] > time })
	return k - 1
}

// NormalizationTime is the common scale of the fake converters of helices
// sharing a path: the smallest gap between nucleotide times, at most 1.
func NormalizationTime(nuclTimes ...[]float64) float64 {
	norm := 1.
	for _, nt := range nuclTimes {
		for i := 1; i < len(nt); i++ {
			norm = math.Min(norm, nt[i]-nt[i-1])
		}
	}
	return norm
}
