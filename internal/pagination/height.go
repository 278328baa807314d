package pagination

import "math"

// TotalHeight returns the vertical space b consumes when placed after its
// preceding siblings: rounded box height plus collapsed top margin plus
// bottom margin. When padding is not nil it replaces the block's own bottom
// padding.
func TotalHeight(m Measurer, b *Block, siblings []*Block, padding *float64) float64 {
	idx := -1
	for i, s := range siblings {
		if s == b {
			idx = i
			break
		}
	}
	return totalHeightAt(m, b, siblings, idx, padding)
}

func totalHeightAt(m Measurer, b *Block, siblings []*Block, idx int, padding *float64) float64 {
	metrics, ok := m.Measure(b)
	if !ok {
		return 0
	}

	height := round2(metrics.Height)
	if padding != nil {
		height = round2(metrics.Height - metrics.PaddingBottom + *padding)
	}

	// margins are read as whole units
	marginTop := math.Trunc(metrics.MarginTop)
	marginBottom := math.Trunc(metrics.MarginBottom)

	if prev := previousSibling(siblings, idx); prev != nil {
		if pm, ok := m.Measure(prev); ok {
			marginTop = math.Max(0, marginTop-math.Trunc(pm.MarginBottom))
		}
	}

	return height + marginTop + marginBottom
}

// previousSibling finds the nearest preceding sibling that is neither a
// forced break nor ignored.
func previousSibling(siblings []*Block, idx int) *Block {
	for i := idx - 1; i >= 0; i-- {
		s := siblings[i]
		if s.Kind == KindBreak || s.Ignore {
			continue
		}
		return s
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
