package pipeline

import (
	"fmt"
	"os"
	"regexp"
)

// DefaultDumpExt is appended to dumped file names
const DefaultDumpExt = "gen"

// DumpToFile writes the current contents of each entity next to it as
// <entity>.<ext>. Entities not matching filter are skipped; a nil filter
// matches everything.
func DumpToFile(ext string, filter *regexp.Regexp) Stage {
	if ext == "" {
		ext = DefaultDumpExt
	}
	return InspectAsync(func(entity string, contents []byte, done func(error)) {
		if filter != nil && !filter.MatchString(entity) {
			done(nil)
			return
		}
		name := entity + "." + ext
		if err := os.WriteFile(name, contents, 0644); err != nil {
			done(fmt.Errorf("failed to dump %s: %w", name, err))
			return
		}
		done(nil)
	})
}
