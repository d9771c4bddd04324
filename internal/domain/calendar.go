package domain

const (
	SemesterSpring = "spring"
	SemesterSummer = "summer"
	SemesterFall   = "fall"
)

// SemesterOrder is the fixed scan order of the block resolver. The first
// semester whose blocks contain a date wins.
var SemesterOrder = []string{SemesterSpring, SemesterSummer, SemesterFall}

// BlocksPerSemester is the expected number of blocks for each semester,
// validated when a calendar entry is saved.
var BlocksPerSemester = map[string]int{
	SemesterSpring: 3,
	SemesterSummer: 1,
	SemesterFall:   3,
}

func KnownSemester(name string) bool {
	_, ok := BlocksPerSemester[name]
	return ok
}

// BlockRange is the inclusive date range of one numbered block, both bounds
// in DateLayout.
type BlockRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether date falls inside the range. Bounds are compared
// lexicographically, which is chronological for DateLayout strings.
func (r BlockRange) Contains(date string) bool {
	return date >= r.Start && date <= r.End
}

func (r BlockRange) Valid() bool {
	return r.Start != "" && r.End != "" && r.Start <= r.End
}

// SemesterBlocks maps block number to its date range.
type SemesterBlocks map[int]BlockRange

// CalendarConfig is the semester/block date-range table. An empty config is
// valid and simply resolves nothing.
type CalendarConfig struct {
	Semesters map[string]SemesterBlocks
}

func NewCalendarConfig() *CalendarConfig {
	return &CalendarConfig{Semesters: make(map[string]SemesterBlocks)}
}

func (c *CalendarConfig) Empty() bool {
	return c == nil || len(c.Semesters) == 0
}

// Merge replaces the entry for one semester, leaving the others untouched.
func (c *CalendarConfig) Merge(semester string, blocks SemesterBlocks) {
	if c.Semesters == nil {
		c.Semesters = make(map[string]SemesterBlocks)
	}
	merged := make(SemesterBlocks, len(blocks))
	for n, r := range blocks {
		merged[n] = r
	}
	c.Semesters[semester] = merged
}

// Span returns the overall [min start, max end] range covered by a semester's
// blocks, used to scope reclassification queries.
func (c *CalendarConfig) Span(semester string) (BlockRange, bool) {
	if c == nil {
		return BlockRange{}, false
	}
	blocks, ok := c.Semesters[semester]
	if !ok || len(blocks) == 0 {
		return BlockRange{}, false
	}

	var span BlockRange
	for _, r := range blocks {
		if span.Start == "" || r.Start < span.Start {
			span.Start = r.Start
		}
		if r.End > span.End {
			span.End = r.End
		}
	}
	return span, true
}

func (c *CalendarConfig) Clone() *CalendarConfig {
	out := NewCalendarConfig()
	if c == nil {
		return out
	}
	for semester, blocks := range c.Semesters {
		out.Merge(semester, blocks)
	}
	return out
}
