package version

import "strings"

// NormalizeLegacy rewrites vendor-legacy version spellings into the
// "major.minor.patch[+build]" shape Parse understands, before parsing.
// Grounded directly on the teacher's ParseVersionNumber
// (internal/utils/jdk_utils.go), which special-cases exactly these two
// formats: BellSoft Liberica's "8u352" and the "1.8.0_452-b09" legacy Java 8
// scheme still reported by several distributions' metadata.
func NormalizeLegacy(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "8u") {
		update := strings.TrimPrefix(s, "8u")
		return "8.0." + update
	}

	if strings.HasPrefix(s, "1.8.0") {
		rest := strings.TrimPrefix(s, "1.8.0")
		if strings.HasPrefix(rest, "_") {
			updatePart := strings.TrimPrefix(rest, "_")
			if idx := strings.IndexAny(updatePart, "-+"); idx != -1 {
				build := updatePart[idx+1:]
				updatePart = updatePart[:idx]
				if build != "" {
					return "8.0." + updatePart + "+" + build
				}
			}
			return "8.0." + updatePart
		}
		return "8.0.0"
	}

	return s
}
