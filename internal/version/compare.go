// Package version orders package version strings the way dpkg does.
//
// A version is [epoch:]upstream[-revision]. Parsing and ordering come from
// knqyf263/go-deb-version; strings it rejects (empty, non-numeric epochs,
// upstream not starting with a digit) fall back to byte order.
package version

import (
	"strconv"
	"strings"

	debversion "github.com/knqyf263/go-deb-version"
)

// Compare returns a negative number when a is older than b, zero when they
// are equivalent and a positive number when a is newer than b.
func Compare(a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)

	va, errA := debversion.NewVersion(a)
	vb, errB := debversion.NewVersion(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}

	if va.Epoch() != vb.Epoch() {
		return sign(va.Epoch() - vb.Epoch())
	}

	// debversion's comparison only terminates on a difference, so each part
	// reaches it only when it is not an equivalent spelling (1.001 vs 1.1).
	if !sameSegments(va.Version(), vb.Version()) {
		return sign(va.Compare(vb))
	}
	if sameSegments(va.Revision(), vb.Revision()) {
		return 0
	}
	ra, errA := debversion.NewVersion("0-" + va.Revision())
	rb, errB := debversion.NewVersion("0-" + vb.Revision())
	if errA != nil || errB != nil {
		return strings.Compare(va.Revision(), vb.Revision())
	}
	return sign(ra.Compare(rb))
}

// IsOutdated reports whether installed is strictly older than reference.
func IsOutdated(reference, installed string) bool {
	return Compare(reference, installed) > 0
}

// segment is one step of the dpkg walk: a non-digit run and the number after it.
type segment struct {
	text   string
	number int
}

func sameSegments(a, b string) bool {
	sa, sb := segments(a), segments(b)
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// segments splits s into alternating runs. Trailing empty-text zero segments
// are dropped since they compare equal to the end of the string.
func segments(s string) []segment {
	var out []segment
	for i := 0; i < len(s); {
		var seg segment
		start := i
		for i < len(s) && !isDigit(s[i]) {
			i++
		}
		seg.text = s[start:i]

		start = i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i > start {
			// Overflow saturates, matching the library's own parsing.
			seg.number, _ = strconv.Atoi(s[start:i])
		}
		out = append(out, seg)
	}

	for len(out) > 0 && out[len(out)-1] == (segment{}) {
		out = out[:len(out)-1]
	}
	return out
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
