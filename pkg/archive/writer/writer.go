package writer

import (
	"github.com/rxtech-lab/argo-archiver/internal/types"
)

// DayWriter persists the records of one UTC day to one file.
type DayWriter interface {
	// WriteDay writes header followed by one row per record to path. The file
	// at path is either the complete previous content, absent, or the complete
	// new content; it is never observed half-written.
	WriteDay(path string, header []string, records []types.Record) error
}
