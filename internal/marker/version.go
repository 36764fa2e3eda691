package marker

import (
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Normalize turns a bare dotted version string ("1.0", "2.3.1") into the
// "vMAJOR.MINOR.PATCH" form golang.org/x/mod/semver requires, padding any
// missing components with zero. Versions that already carry a "v" prefix
// keep it and are padded the same way ("v1.2" becomes "v1.2.0").
func Normalize(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	parts := strings.Split(v[1:], ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return "v" + strings.Join(parts[:3], ".")
}

// CompareVersions orders two version strings as found in a since or
// remove_in argument. It prefers semantic-version comparison; for
// version schemes semver.IsValid rejects (rare in practice, since typical
// remove_in values are plain "MAJOR.MINOR" strings that Normalize already
// handles), it falls back to a component-wise numeric comparison so a
// malformed version never panics or silently sorts wrong relative to a
// well-formed one.
func CompareVersions(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if semver.IsValid(na) && semver.IsValid(nb) {
		return semver.Compare(na, nb)
	}
	return compareDotted(a, b)
}

func compareDotted(a, b string) int {
	pa := strings.Split(strings.TrimPrefix(a, "v"), ".")
	pb := strings.Split(strings.TrimPrefix(b, "v"), ".")
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var na, nb int
		if i < len(pa) {
			na, _ = strconv.Atoi(pa[i])
		}
		if i < len(pb) {
			nb, _ = strconv.Atoi(pb[i])
		}
		if na != nb {
			if na < nb {
				return -1
			}
			return 1
		}
	}
	return 0
}

// AtOrPast reports whether targetVersion has reached or passed
// removeInVersion, i.e. whether a construct whose remove_in is
// removeInVersion should be deleted by cleanup when migrating to
// targetVersion.
func AtOrPast(targetVersion, removeInVersion string) bool {
	if removeInVersion == "" {
		return false
	}
	return CompareVersions(targetVersion, removeInVersion) >= 0
}
