package stats

// RatioUndefined is returned by Ratio before any record has been counted.
const RatioUndefined = -1.0

// Stats counts records flowing through one pipeline run. It is owned by the
// run and is not safe for concurrent mutation.
type Stats struct {
	total    uint64
	accepted uint64
	excluded map[string]uint64
}

func New() *Stats {
	return &Stats{excluded: make(map[string]uint64)}
}

func (s *Stats) IncrementTotal() {
	s.total++
}

func (s *Stats) IncrementAccepted() {
	s.accepted++
}

func (s *Stats) IncrementExcluded(reason string) {
	if s.excluded == nil {
		s.excluded = make(map[string]uint64)
	}
	s.excluded[reason]++
}

func (s *Stats) Total() uint64 {
	return s.total
}

func (s *Stats) Accepted() uint64 {
	return s.accepted
}

// Ratio returns accepted/total as a percentage, or RatioUndefined when
// nothing has been counted yet.
func (s *Stats) Ratio() float64 {
	if s.total == 0 {
		return RatioUndefined
	}

	return float64(s.accepted) * 100 / float64(s.total)
}

type Snapshot struct {
	Total    uint64
	Accepted uint64
	Ratio    float64
	Excluded map[string]uint64
}

func (s *Stats) Snapshot() Snapshot {
	excluded := make(map[string]uint64, len(s.excluded))
	for reason, count := range s.excluded {
		excluded[reason] = count
	}

	return Snapshot{
		Total:    s.total,
		Accepted: s.accepted,
		Ratio:    s.Ratio(),
		Excluded: excluded,
	}
}
