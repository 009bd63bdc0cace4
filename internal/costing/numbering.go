package costing

import (
	"fmt"
	"regexp"
	"strconv"
)

var compositionNumber = regexp.MustCompile(`CN-(\d+)`)

var wholeNumber = regexp.MustCompile(`^CN-\d+$`)

// IsNumber reports whether s is a composition number such as CN-007.
func IsNumber(s string) bool {
	return wholeNumber.MatchString(s)
}

// NextNumber scans existing composition numbers and returns the one after
// the highest, zero-padded to three digits. The first ever is CN-001.
func NextNumber(existing []string) string {
	hi := 0
	for _, id := range existing {
		m := compositionNumber.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > hi {
			hi = n
		}
	}
	return fmt.Sprintf("CN-%03d", hi+1)
}
