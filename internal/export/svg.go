package export

import (
	"fmt"
	"strings"

	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
)

const defaultColor = "#cccccc"

// SceneToSVG draws the live atoms as circles with their bonds underneath.
// The viewport maps world coordinates to the width×height picture.
func SceneToSVG(atoms []*entity.Atom, vp sim.Viewport, width, height int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	ww, _ := vp.WorldSize()
	scale := float64(width) / ww

	byID := make(map[entity.ID]*entity.Atom, len(atoms))
	for _, a := range atoms {
		if a.Alive() {
			byID[a.ID] = a
		}
	}

	sb.WriteString(`<g stroke="#666666" stroke-width="2">` + "\n")
	for _, a := range atoms {
		if !a.Alive() {
			continue
		}
		x1, y1 := vp.ToScreen(a.Pos)
		for _, nb := range a.Neighbors() {
			b, ok := byID[nb]
			if !ok || nb < a.ID {
				continue
			}
			x2, y2 := vp.ToScreen(b.Pos)
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke-width="%d"/>
`, x1, y1, x2, y2, 2*a.BondOrder(nb)))
		}
	}
	sb.WriteString("</g>\n")

	sb.WriteString("<g>\n")
	for _, a := range atoms {
		if !a.Alive() {
			continue
		}
		x, y := vp.ToScreen(a.Pos)
		color := a.Species.Color()
		if color == "" {
			color = defaultColor
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"><title>%s</title></circle>
`, x, y, max(a.Radius*scale, 1), color, a.Species.ID()))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG draws one metric over time as a polyline.
func SeriesToSVG(times, values []float64, width, height int, strokeColor string) string {
	n := min(len(times), len(values))
	if n < 2 {
		return ""
	}

	minX, maxX := times[0], times[0]
	minY, maxY := values[0], values[0]
	for i := 0; i < n; i++ {
		minX = min(minX, times[i])
		maxX = max(maxX, times[i])
		minY = min(minY, values[i])
		maxY = max(maxY, values[i])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i := 0; i < n; i++ {
		x := (times[i] - minX) / rangeX * float64(width)
		y := float64(height) - (values[i]-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
