package calendar

import (
	"sort"

	"github.com/campuseye/attendance-engine/internal/domain"
)

// Placement is the semester/block a date resolved to.
type Placement struct {
	Semester string
	Block    int
}

// Resolver locates the block whose date range contains a calendar day.
// Semesters are scanned in the fixed domain.SemesterOrder and blocks in
// ascending number; the first containing block wins. Later overlapping
// blocks are unreachable by design, not silently reordered.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

func (r *Resolver) Resolve(date string, cfg *domain.CalendarConfig) (Placement, bool) {
	if cfg == nil || date == "" {
		return Placement{}, false
	}

	for _, semester := range domain.SemesterOrder {
		blocks, ok := cfg.Semesters[semester]
		if !ok {
			continue
		}

		numbers := make([]int, 0, len(blocks))
		for n := range blocks {
			numbers = append(numbers, n)
		}
		sort.Ints(numbers)

		for _, n := range numbers {
			if blocks[n].Contains(date) {
				return Placement{Semester: semester, Block: n}, true
			}
		}
	}

	return Placement{}, false
}
