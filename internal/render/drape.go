package render

import (
	"math"

	"rando/internal/models"
)

// heightAt samples the DEM grid bilinearly at the normalized horizontal
// position (x, z). Row 0 of the grid is the north edge and column 0 the west
// edge. Positions outside the extent are clamped to its border.
func heightAt(dem *models.DemData, x, z float64) float64 {
	rows, cols := dem.Resolution.Y, dem.Resolution.X
	minX, maxX, minZ, maxZ := dem.Extent.Bounds()

	u := gridPos(x-minX, maxX-minX, cols)
	v := gridPos(maxZ-z, maxZ-minZ, rows)

	c0, r0 := int(math.Floor(u)), int(math.Floor(v))
	c1, r1 := min(c0+1, cols-1), min(r0+1, rows-1)
	fu, fv := u-float64(c0), v-float64(r0)

	g := dem.Altitudes
	top := lerp(g[r0][c0], g[r0][c1], fu)
	bottom := lerp(g[r1][c0], g[r1][c1], fu)
	return lerp(top, bottom, fv)
}

// gridPos maps a distance along an axis of the given span onto a fractional
// grid index in [0, n-1].
func gridPos(d, span float64, n int) float64 {
	if n <= 1 || span <= 0 {
		return 0
	}
	p := d / span * float64(n-1)
	return math.Max(0, math.Min(p, float64(n-1)))
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
