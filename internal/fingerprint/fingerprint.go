// Package fingerprint computes perceptual hashes of portrait photos so the
// same picture assigned to two records can be spotted before printing.
package fingerprint

import (
	"fmt"
	"image"
	"math"
	"math/bits"
	"slices"

	"github.com/disintegration/imaging"

	"github.com/mburuwhiz/idmaker-sub000/internal/constants"
)

// DefaultThreshold is the largest Hamming distance, on both hashes, at which
// two photos count as the same picture. Re-encoding, resizing and mild
// colour changes stay well below it.
const DefaultThreshold = constants.DuplicatePhotoThreshold

// Hash holds a DCT based perceptual hash and a difference hash.
type Hash struct {
	P uint64 `json:"phash"`
	D uint64 `json:"dhash"`
}

func (h Hash) String() string {
	return fmt.Sprintf("%016x:%016x", h.P, h.D)
}

// Of hashes img.
func Of(img image.Image) Hash {
	gray := imaging.Grayscale(img)
	return Hash{P: pHash(gray), D: dHash(gray)}
}

// Distance returns the Hamming distances of the two hashes.
func Distance(a, b Hash) (p, d int) {
	return bits.OnesCount64(a.P ^ b.P), bits.OnesCount64(a.D ^ b.D)
}

// Same reports whether both distances are within threshold.
func Same(a, b Hash, threshold int) bool {
	p, d := Distance(a, b)
	return p <= threshold && d <= threshold
}

func luma(img *image.NRGBA, x, y int) float64 {
	return float64(img.Pix[y*img.Stride+x*4])
}

// dHash compares horizontally adjacent pixels of a 9x8 thumbnail.
func dHash(gray *image.NRGBA) uint64 {
	small := imaging.Resize(gray, 9, 8, imaging.Box)
	var h uint64
	for y := range 8 {
		for x := range 8 {
			h <<= 1
			if luma(small, x, y) > luma(small, x+1, y) {
				h |= 1
			}
		}
	}
	return h
}

const dctSize = 32

var dctCos = func() [8][dctSize]float64 {
	var t [8][dctSize]float64
	for u := range 8 {
		for x := range dctSize {
			t[u][x] = math.Cos(math.Pi * float64(u) * (2*float64(x) + 1) / (2 * dctSize))
		}
	}
	return t
}()

// pHash thresholds the 8x8 lowest DCT frequencies of a 32x32 thumbnail
// against their median. The DC term is replaced by the next row's first
// coefficient so a flat brightness shift does not flip bits.
func pHash(gray *image.NRGBA) uint64 {
	small := imaging.Resize(gray, dctSize, dctSize, imaging.Lanczos)

	// Separable DCT-II, keeping only the first 8 frequencies per axis.
	var rows [dctSize][8]float64
	for y := range dctSize {
		for u := range 8 {
			var sum float64
			for x := range dctSize {
				sum += luma(small, x, y) * dctCos[u][x]
			}
			rows[y][u] = sum
		}
	}
	coeffs := make([]float64, 0, 64)
	for v := range 8 {
		for u := range 8 {
			var sum float64
			for y := range dctSize {
				sum += rows[y][u] * dctCos[v][y]
			}
			coeffs = append(coeffs, sum)
		}
	}
	coeffs[0] = coeffs[8]

	sorted := slices.Clone(coeffs)
	slices.Sort(sorted)
	median := (sorted[31] + sorted[32]) / 2

	var h uint64
	for _, c := range coeffs {
		h <<= 1
		if c > median {
			h |= 1
		}
	}
	return h
}
