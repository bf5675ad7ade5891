package tui

// sparkBlocks maps a 0..100 sample to one of eight block heights.
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// history keeps the most recent percentage samples for a sparkline.
type history struct {
	samples []float64
	limit   int
}

func newHistory(limit int) *history {
	if limit < 1 {
		limit = 1
	}
	return &history{limit: limit}
}

// Push appends v, dropping the oldest sample past the limit.
func (h *history) Push(v float64) {
	h.samples = append(h.samples, clampPercent(v))
	if over := len(h.samples) - h.limit; over > 0 {
		h.samples = append(h.samples[:0], h.samples[over:]...)
	}
}

// Last returns the newest sample, or 0 when empty.
func (h *history) Last() float64 {
	if len(h.samples) == 0 {
		return 0
	}
	return h.samples[len(h.samples)-1]
}

// Len returns the number of stored samples.
func (h *history) Len() int { return len(h.samples) }

// Sparkline renders the newest width samples, oldest first.
func (h *history) Sparkline(width int) string {
	if width <= 0 || len(h.samples) == 0 {
		return ""
	}
	values := h.samples
	if len(values) > width {
		values = values[len(values)-width:]
	}
	runes := make([]rune, len(values))
	for i, v := range values {
		idx := int(v / 100 * float64(len(sparkBlocks)-1))
		runes[i] = sparkBlocks[idx]
	}
	return string(runes)
}

func clampPercent(v float64) float64 {
	return max(0, min(100, v))
}
