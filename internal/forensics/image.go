package forensics

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"deepscan/internal/media/raster"
)

const (
	blockSize             = 8
	blockEdgeVariance     = 100.0
	compressedScore       = 0.3
	noiseStdLow           = 5.0
	noiseStdHigh          = 100.0
	histogramBins         = 256
	entropyEpsilon        = 1e-10
	cannyLow              = 50.0
	cannyHigh             = 150.0
	edgeRatioLow          = 0.01
	edgeRatioHigh         = 0.3
	lightingStdLimit      = 50.0
	shadowLevel           = 85
	highlightLevel        = 170
	extremeRegionFraction = 0.4
)

// CompressionAnalysis reports 8x8 blocking artifacts.
type CompressionAnalysis struct {
	ArtifactScore    float64 `json:"compression_artifact_score" yaml:"compression_artifact_score"`
	LikelyCompressed bool    `json:"likely_compressed" yaml:"likely_compressed"`
}

// NoiseAnalysis summarises the Laplacian residue.
type NoiseAnalysis struct {
	Std            float64 `json:"noise_std" yaml:"noise_std"`
	Entropy        float64 `json:"noise_entropy" yaml:"noise_entropy"`
	UnnaturalNoise bool    `json:"unnatural_noise" yaml:"unnatural_noise"`
}

// ColorAnalysis holds channel means and pairwise correlations.
type ColorAnalysis struct {
	RMean           float64 `json:"r_mean" yaml:"r_mean"`
	GMean           float64 `json:"g_mean" yaml:"g_mean"`
	BMean           float64 `json:"b_mean" yaml:"b_mean"`
	RGCorrelation   float64 `json:"rg_correlation" yaml:"rg_correlation"`
	RBCorrelation   float64 `json:"rb_correlation" yaml:"rb_correlation"`
	GBCorrelation   float64 `json:"gb_correlation" yaml:"gb_correlation"`
	UnnaturalColors bool    `json:"unnatural_colors" yaml:"unnatural_colors"`
}

// EdgeAnalysis reports Canny edge density.
type EdgeAnalysis struct {
	Ratio           float64 `json:"edge_ratio" yaml:"edge_ratio"`
	Count           int     `json:"edge_count" yaml:"edge_count"`
	SuspiciousEdges bool    `json:"suspicious_edges" yaml:"suspicious_edges"`
}

// LightingAnalysis compares mean luma across the four quadrants.
type LightingAnalysis struct {
	QuadrantMeans        []float64 `json:"quadrant_means" yaml:"quadrant_means"`
	LuminanceVariance    float64   `json:"luminance_variance" yaml:"luminance_variance"`
	InconsistentLighting bool      `json:"inconsistent_lighting" yaml:"inconsistent_lighting"`
}

// ShadowAnalysis reports how much of the frame is crushed or blown out.
type ShadowAnalysis struct {
	ShadowRatio            float64 `json:"shadow_ratio" yaml:"shadow_ratio"`
	HighlightRatio         float64 `json:"highlight_ratio" yaml:"highlight_ratio"`
	ExtremeShadowHighlight bool    `json:"extreme_shadow_highlight" yaml:"extreme_shadow_highlight"`
}

// DetectCompressionArtifacts scans 8x8 luma blocks and counts those whose top
// row or left column varies more than a smooth block would. Blocks touching
// the last 8 rows or columns are never visited.
func DetectCompressionArtifacts(gray *raster.Gray) CompressionAnalysis {
	denominator := (gray.Height / blockSize) * (gray.Width / blockSize)
	if denominator == 0 {
		return CompressionAnalysis{}
	}
	row := make([]float64, blockSize)
	col := make([]float64, blockSize)
	flagged := 0
	for y := 0; y < gray.Height-blockSize; y += blockSize {
		for x := 0; x < gray.Width-blockSize; x += blockSize {
			for i := 0; i < blockSize; i++ {
				row[i] = float64(gray.At(x+i, y))
				col[i] = float64(gray.At(x, y+i))
			}
			if popVariance(row) > blockEdgeVariance || popVariance(col) > blockEdgeVariance {
				flagged++
			}
		}
	}
	score := float64(flagged) / float64(denominator)
	return CompressionAnalysis{ArtifactScore: score, LikelyCompressed: score > compressedScore}
}

// DetectNoiseInconsistencies filters luma with the 4-neighbour Laplacian and
// flags residue that is either too clean or too noisy.
func DetectNoiseInconsistencies(gray *raster.Gray) NoiseAnalysis {
	residue := Laplacian(gray)
	if len(residue) == 0 {
		return NoiseAnalysis{}
	}
	std := math.Sqrt(popVariance(residue))
	return NoiseAnalysis{
		Std:            std,
		Entropy:        HistogramEntropy(residue, histogramBins),
		UnnaturalNoise: std < noiseStdLow || std > noiseStdHigh,
	}
}

// Laplacian applies [[0,1,0],[1,-4,1],[0,1,0]] with a reflect-101 border.
func Laplacian(gray *raster.Gray) []float64 {
	w, h := gray.Width, gray.Height
	out := make([]float64, w*h)
	if w == 0 || h == 0 {
		return out[:0]
	}
	at := func(x, y int) float64 {
		return float64(gray.At(reflect101(x, w), reflect101(y, h)))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = at(x, y-1) + at(x-1, y) + at(x+1, y) + at(x, y+1) - 4*at(x, y)
		}
	}
	return out
}

// HistogramEntropy bins values uniformly over [min, max] and returns
// -sum(p*log2(p+1e-10)). A constant input lands in a single bin.
func HistogramEntropy(values []float64, bins int) float64 {
	if len(values) == 0 || bins <= 0 {
		return 0
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	counts := stat.Histogram(nil, dividers, clampTop(values, hi), nil)
	total := float64(len(values))
	entropy := 0.0
	for _, c := range counts {
		p := c / total
		entropy -= p * math.Log2(p+entropyEpsilon)
	}
	return entropy
}

// DetectColorInconsistencies flags negatively correlated channel pairs.
// A flat channel has no defined correlation; it reports 0 and never flags.
func DetectColorInconsistencies(img *raster.Image) ColorAnalysis {
	if img.Empty() {
		return ColorAnalysis{}
	}
	r, g, b := img.Channel(0), img.Channel(1), img.Channel(2)
	out := ColorAnalysis{
		RMean:         stat.Mean(r, nil),
		GMean:         stat.Mean(g, nil),
		BMean:         stat.Mean(b, nil),
		RGCorrelation: correlation(r, g),
		RBCorrelation: correlation(r, b),
		GBCorrelation: correlation(g, b),
	}
	out.UnnaturalColors = out.RGCorrelation < 0 || out.RBCorrelation < 0 || out.GBCorrelation < 0
	return out
}

// DetectEdgeInconsistencies runs Canny (50/150) and checks edge density.
func DetectEdgeInconsistencies(gray *raster.Gray) EdgeAnalysis {
	total := gray.Width * gray.Height
	if total == 0 {
		return EdgeAnalysis{}
	}
	count := 0
	for _, v := range Canny(gray, cannyLow, cannyHigh) {
		if v {
			count++
		}
	}
	ratio := float64(count) / float64(total)
	return EdgeAnalysis{
		Ratio:           ratio,
		Count:           count,
		SuspiciousEdges: ratio < edgeRatioLow || ratio > edgeRatioHigh,
	}
}

// AnalyzeLightingConsistency splits the frame at (w/2, h/2) and compares the
// quadrant means. Images narrower or shorter than 2 pixels have empty
// quadrants and are reported as consistent.
func AnalyzeLightingConsistency(gray *raster.Gray) LightingAnalysis {
	w, h := gray.Width, gray.Height
	if w < 2 || h < 2 {
		return LightingAnalysis{QuadrantMeans: []float64{0, 0, 0, 0}}
	}
	mx, my := w/2, h/2
	means := []float64{
		regionMean(gray, 0, 0, mx, my),
		regionMean(gray, mx, 0, w, my),
		regionMean(gray, 0, my, mx, h),
		regionMean(gray, mx, my, w, h),
	}
	std := math.Sqrt(popVariance(means))
	return LightingAnalysis{
		QuadrantMeans:        means,
		LuminanceVariance:    std,
		InconsistentLighting: std > lightingStdLimit,
	}
}

// DetectShadowInconsistencies measures the dark and bright tails of luma.
func DetectShadowInconsistencies(gray *raster.Gray) ShadowAnalysis {
	if len(gray.Pix) == 0 {
		return ShadowAnalysis{}
	}
	shadows, highlights := 0, 0
	for _, v := range gray.Pix {
		switch {
		case v < shadowLevel:
			shadows++
		case v > highlightLevel:
			highlights++
		}
	}
	total := float64(len(gray.Pix))
	out := ShadowAnalysis{
		ShadowRatio:    float64(shadows) / total,
		HighlightRatio: float64(highlights) / total,
	}
	out.ExtremeShadowHighlight = out.ShadowRatio > extremeRegionFraction || out.HighlightRatio > extremeRegionFraction
	return out
}

func regionMean(gray *raster.Gray, x0, y0, x1, y1 int) float64 {
	sum := 0.0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			sum += float64(gray.At(x, y))
		}
	}
	return sum / float64((x1-x0)*(y1-y0))
}

func popVariance(values []float64) float64 {
	_, variance := stat.PopMeanVariance(values, nil)
	return variance
}

func correlation(a, b []float64) float64 {
	c := stat.Correlation(a, b, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return c
}

// clampTop returns a sorted copy with values at the upper divider nudged into
// the last bin; stat.Histogram treats the last divider as exclusive.
func clampTop(values []float64, hi float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	top := math.Nextafter(hi, math.Inf(-1))
	for i, v := range sorted {
		if v >= hi {
			sorted[i] = top
		}
	}
	slices.Sort(sorted)
	return sorted
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}
