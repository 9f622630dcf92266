package parser

import (
	"math"
	"sort"
	"strings"

	"github.com/insightdelivered/bank-parser/internal/models"
)

// wordLine is a visual line rebuilt from positioned words.
type wordLine struct {
	Y     float64
	Words []models.WordInfo
	Text  string
}

// groupWordsByKey groups words whose Top maps to the same key, orders lines
// top to bottom and words left to right.
func groupWordsByKey(words []models.WordInfo, key func(top float64) float64) []wordLine {
	byY := make(map[float64][]models.WordInfo)
	for _, w := range words {
		y := key(w.Top)
		byY[y] = append(byY[y], w)
	}

	ys := make([]float64, 0, len(byY))
	for y := range byY {
		ys = append(ys, y)
	}
	sort.Float64s(ys)

	lines := make([]wordLine, 0, len(ys))
	for _, y := range ys {
		lines = append(lines, newWordLine(y, byY[y]))
	}
	return lines
}

// groupWordsByTolerance assigns each word to the first line whose
// representative Y is within tol, creating a new line otherwise.
func groupWordsByTolerance(words []models.WordInfo, tol float64) []wordLine {
	sorted := make([]models.WordInfo, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].Top != sorted[b].Top {
			return sorted[a].Top < sorted[b].Top
		}
		return sorted[a].X0 < sorted[b].X0
	})

	var ys []float64
	groups := make(map[int][]models.WordInfo)
	for _, w := range sorted {
		idx := -1
		for i, y := range ys {
			if math.Abs(w.Top-y) <= tol {
				idx = i
				break
			}
		}
		if idx < 0 {
			ys = append(ys, w.Top)
			idx = len(ys) - 1
		}
		groups[idx] = append(groups[idx], w)
	}

	lines := make([]wordLine, 0, len(ys))
	for i, y := range ys {
		lines = append(lines, newWordLine(y, groups[i]))
	}
	sort.SliceStable(lines, func(a, b int) bool { return lines[a].Y < lines[b].Y })
	return lines
}

func newWordLine(y float64, words []models.WordInfo) wordLine {
	ws := make([]models.WordInfo, len(words))
	copy(ws, words)
	sort.SliceStable(ws, func(a, b int) bool { return ws[a].X0 < ws[b].X0 })
	parts := make([]string, 0, len(ws))
	for _, w := range ws {
		parts = append(parts, w.Text)
	}
	return wordLine{Y: y, Words: ws, Text: strings.Join(parts, " ")}
}

// roundTo rounds half to even at the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*p) / p
}
