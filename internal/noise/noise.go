// Package noise generates deterministic gradient noise for surface detail.
package noise

import (
	"github.com/chewxy/math32"
)

// Generator produces Perlin noise for one seed. It holds no mutable state
// and is safe for concurrent use.
type Generator struct {
	seed int
}

// NewGenerator creates a generator with the given seed
func NewGenerator(seed int) *Generator {
	return &Generator{seed: seed}
}

// Perlin2D returns gradient noise at (x, y), roughly in [-1, 1]
func (g *Generator) Perlin2D(x, y float32) float32 {
	return perlin2D(x, y, g.seed)
}

// FBM2D sums octaves of Perlin noise, each at lacunarity times the
// frequency and gain times the amplitude of the previous one. The result is
// normalised by the total amplitude.
func (g *Generator) FBM2D(x, y float32, octaves int, lacunarity, gain float32) float32 {
	var result, total float32
	amplitude := float32(1)
	frequency := float32(1)

	for i := 0; i < octaves; i++ {
		result += perlin2D(x*frequency, y*frequency, g.seed+i) * amplitude
		total += amplitude
		amplitude *= gain
		frequency *= lacunarity
	}
	if total == 0 {
		return 0
	}
	return result / total
}

func perlin2D(x, y float32, seed int) float32 {
	x0 := math32.Floor(x)
	y0 := math32.Floor(y)
	x1 := x0 + 1
	y1 := y0 + 1

	sx := smootherstep(x - x0)
	sy := smootherstep(y - y0)

	ix0, iy0 := int(x0), int(y0)
	dp00 := gradientDot(hash(ix0, iy0, seed), x-x0, y-y0)
	dp10 := gradientDot(hash(ix0+1, iy0, seed), x-x1, y-y0)
	dp01 := gradientDot(hash(ix0, iy0+1, seed), x-x0, y-y1)
	dp11 := gradientDot(hash(ix0+1, iy0+1, seed), x-x1, y-y1)

	return lerp(lerp(dp00, dp10, sx), lerp(dp01, dp11, sx), sy)
}

// hash mixes lattice coordinates and the seed
func hash(x, y, seed int) int {
	h := seed + x*374761393 + y*668265263
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}

// gradientDot picks one of eight lattice gradients and dots it with (dx, dy)
func gradientDot(h int, dx, dy float32) float32 {
	switch h & 7 {
	case 0:
		return dx
	case 1:
		return -dx
	case 2:
		return dy
	case 3:
		return -dy
	case 4:
		return dx + dy
	case 5:
		return -dx + dy
	case 6:
		return dx - dy
	default:
		return -dx - dy
	}
}

func lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}

// smootherstep is 6t^5 - 15t^4 + 10t^3
func smootherstep(t float32) float32 {
	return t * t * t * (t*(t*6-15) + 10)
}
