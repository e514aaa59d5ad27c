// Package caseid generates year-scoped sequential case identifiers of the
// form SA-<year>-<sequence>, e.g. SA-2025-0001.
package caseid

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Prefix returns the identifier prefix for the given year.
func Prefix(year int) string {
	return fmt.Sprintf("SA-%d-", year)
}

// Next computes the next identifier in the sequence for year, given the
// identifiers currently on the active docket. Identifiers with a different
// year prefix are ignored, as are identifiers whose trailing segment is not a
// parseable number; a single corrupt legacy identifier must never make
// assignment fail. The sequence is scoped to the active docket only, so
// archiving the highest-numbered case allows its suffix to be handed out
// again. That matches how the system has always behaved and is deliberate.
//
// The suffix is zero-padded to four digits and widens past 9999.
func Next(year int, existing []string) string {
	prefix := Prefix(year)

	max := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		suffix := id[strings.LastIndex(id, "-")+1:]
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
	}

	return fmt.Sprintf("%s%04d", prefix, max+1)
}

// NextNow is Next for the current year.
func NextNow(existing []string) string {
	return Next(time.Now().Year(), existing)
}
