// Package version implements kopi's JDK version model: parsing, display,
// ordering and the optional-component pattern matching described in spec
// §3/§4.2. It generalizes the teacher's ParseVersionNumber
// (internal/utils/jdk_utils.go), which represents "unset" as the sentinel -1
// baked into plain ints; kopi instead uses *int fields so the zero value of a
// Version is unambiguous and matching can distinguish "not specified" from
// "specified as zero".
package version

import (
	"fmt"
	"strconv"
	"strings"

	"kopi/internal/kopierr"
)

// Version is (major, minor?, patch?, build?) as described in spec §3. Minor
// and Patch are nil when the user never specified them — this is the
// distinction that makes a cached "21" fail to match a request for
// "21.0.0", while "21.0.7" matches a request for "21".
type Version struct {
	Major int
	Minor *int
	Patch *int
	Build string // opaque, compared only when the pattern specifies one
}

func intPtr(v int) *int { return &v }

// Parse accepts "N[.N[.N]][+B]", rejecting more than three numeric
// components, empty components, and non-numeric components (Build is opaque
// and not validated as numeric).
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, kopierr.InvalidVersionFormat(s)
	}

	build := ""
	numeric := s
	if idx := strings.IndexByte(s, '+'); idx != -1 {
		numeric = s[:idx]
		build = s[idx+1:]
		if build == "" {
			return Version{}, kopierr.InvalidVersionFormat(s)
		}
	}

	parts := strings.Split(numeric, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return Version{}, kopierr.InvalidVersionFormat(s)
	}

	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return Version{}, kopierr.InvalidVersionFormat(s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, kopierr.InvalidVersionFormat(s)
		}
		nums = append(nums, n)
	}

	v := Version{Major: nums[0], Build: build}
	if len(nums) > 1 {
		v.Minor = intPtr(nums[1])
	}
	if len(nums) > 2 {
		v.Patch = intPtr(nums[2])
	}
	return v, nil
}

// String round-trips Parse: parse(display(parse(v))) == parse(v), per spec §8
// invariant 1.
func (v Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", v.Major)
	if v.Minor != nil {
		fmt.Fprintf(&b, ".%d", *v.Minor)
	}
	if v.Patch != nil {
		fmt.Fprintf(&b, ".%d", *v.Patch)
	}
	if v.Build != "" {
		fmt.Fprintf(&b, "+%s", v.Build)
	}
	return b.String()
}

// MatchesPattern implements the §3 matching rule: request components must
// equal cache components where the request specifies them; where the
// request omits a component, any value (or absence) matches; build, if
// requested, must match exactly. Never panics — an unparseable pattern
// simply fails to match, per §4.2.
func (v Version) MatchesPattern(pattern string) bool {
	req, err := Parse(pattern)
	if err != nil {
		return false
	}
	return v.Matches(req)
}

// Matches compares v (the cached/installed version) against req (the
// request), applying req's omissions as wildcards.
func (v Version) Matches(req Version) bool {
	if v.Major != req.Major {
		return false
	}
	if req.Minor != nil {
		if v.Minor == nil || *v.Minor != *req.Minor {
			return false
		}
	}
	if req.Patch != nil {
		if v.Patch == nil || *v.Patch != *req.Patch {
			return false
		}
	}
	if req.Build != "" && v.Build != req.Build {
		return false
	}
	return true
}

func orZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Compare orders versions lexicographically on (major, minor-or-0,
// patch-or-0); Build never participates in ordering, per spec §4.2. Returns
// -1, 0 or 1 like strings.Compare / bytes.Compare.
func Compare(a, b Version) int {
	if a.Major != b.Major {
		if a.Major < b.Major {
			return -1
		}
		return 1
	}
	am, bm := orZero(a.Minor), orZero(b.Minor)
	if am != bm {
		if am < bm {
			return -1
		}
		return 1
	}
	ap, bp := orZero(a.Patch), orZero(b.Patch)
	if ap != bp {
		if ap < bp {
			return -1
		}
		return 1
	}
	return 0
}

// Less reports whether a sorts before b, for use with sort.Slice.
func Less(a, b Version) bool { return Compare(a, b) < 0 }
