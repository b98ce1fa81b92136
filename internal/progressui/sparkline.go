package progressui

import "strings"

// sparkline renders a rolling window of samples as a bar of Unicode
// block characters, scaled against the window's own maximum.
type sparkline struct {
	samples []float64
	width   int
	head    int
	count   int
	max     float64
}

var sparklineChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

func newSparkline(width int) *sparkline {
	if width <= 0 {
		width = 60
	}
	return &sparkline{samples: make([]float64, width), width: width}
}

func (s *sparkline) add(value float64) {
	s.samples[s.head] = value
	s.head = (s.head + 1) % s.width
	s.count++

	if value > s.max {
		s.max = value
	}
	// Recompute periodically so a sustained drop in throughput isn't
	// stuck rendering against a stale peak forever.
	if s.count%s.width == 0 {
		s.recalculateMax()
	}
}

func (s *sparkline) recalculateMax() {
	s.max = 0
	for _, v := range s.samples {
		if v > s.max {
			s.max = v
		}
	}
	if s.max < 1 {
		s.max = 1
	}
}

func (s *sparkline) clear() {
	for i := range s.samples {
		s.samples[i] = 0
	}
	s.head, s.count, s.max = 0, 0, 0
}

// render draws the sparkline at the given width (clamped to the
// tracker's own buffer width), most recent sample last.
func (s *sparkline) render(width int) string {
	if width <= 0 || width > s.width {
		width = s.width
	}
	if s.count == 0 {
		return strings.Repeat(string(sparklineChars[0]), width)
	}
	if s.max <= 0 {
		s.recalculateMax()
	}

	numSamples := min(s.count, s.width)
	start := 0
	if s.count >= s.width {
		start = s.head
	}
	skip := 0
	if numSamples > width {
		skip = numSamples - width
	}

	var sb strings.Builder
	sb.Grow(width * 3)
	for i := numSamples - skip; i < width; i++ {
		sb.WriteRune(' ')
	}
	for i := skip; i < numSamples; i++ {
		sb.WriteRune(s.charFor(s.samples[(start+i)%s.width]))
	}
	return sb.String()
}

func (s *sparkline) charFor(value float64) rune {
	if s.max <= 0 {
		return sparklineChars[0]
	}
	scaled := value / s.max
	idx := int(scaled * float64(len(sparklineChars)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sparklineChars) {
		idx = len(sparklineChars) - 1
	}
	return sparklineChars[idx]
}
