package pagination

import "math"

// lineTolerance is the largest top difference of fragments on one visual line
const lineTolerance = 2

// SplitLine splits a rendered text run into fragments that each render on a
// single visual line. For every remaining substring a binary search finds the
// longest prefix whose client rects all share one rounded top.
func SplitLine(run TextRun) []LineFragment {
	text := []rune(run.Text())
	n := len(text)

	var fragments []LineFragment
	for start := 0; start < n; {
		low, high := start, n
		lastValid := start
		top, found := 0.0, false

		for low <= high {
			mid := (low + high) / 2
			rects := run.ClientRects(start, mid)
			if len(rects) == 0 {
				high = mid - 1
				continue
			}
			t := roundHalfUp(rects[0].Top)
			if sameTop(rects, t) {
				lastValid, top, found = mid, t, true
				low = mid + 1
			} else {
				high = mid - 1
			}
		}

		// always advance by at least one character
		if lastValid <= start {
			lastValid = start + 1
		}
		if !found {
			if rects := run.ClientRects(start, start+1); len(rects) > 0 {
				top = roundHalfUp(rects[0].Top)
			}
		}

		fragments = append(fragments, LineFragment{Text: string(text[start:lastValid]), Top: top})
		start = lastValid
	}
	return fragments
}

// ExtractLines returns the visual lines of a container in reading order.
// Fragments of consecutive runs whose tops differ by less than two units are
// merged; the merged line keeps the top of its first fragment.
func ExtractLines(c TextContainer) []LineFragment {
	var lines []LineFragment
	for _, run := range c.TextRuns() {
		for _, f := range SplitLine(run) {
			if n := len(lines); n > 0 && math.Abs(lines[n-1].Top-f.Top) < lineTolerance {
				lines[n-1].Text += f.Text
				continue
			}
			lines = append(lines, f)
		}
	}
	return lines
}

func sameTop(rects []Rect, top float64) bool {
	for _, r := range rects {
		if roundHalfUp(r.Top) != top {
			return false
		}
	}
	return true
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
