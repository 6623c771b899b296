package archive

import "strings"

// PairedInputName derives the input filename paired with an
// expected-output file. A name is recognized as an output when
// splitting it on "." yields a component equal to "out" or "ans"
// past the first; the paired input name replaces the first such
// component with "in". The second return value is false when the
// name has no output component and is to be ignored.
func PairedInputName(name string) (string, bool) {
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return "", false
	}
	for i := 1; i < len(parts); i++ {
		if parts[i] == "out" || parts[i] == "ans" {
			parts[i] = "in"
			return strings.Join(parts, "."), true
		}
	}
	return "", false
}

// TaskSegment returns the first path segment of an archive entry,
// which names the task the entry belongs to.
func TaskSegment(name string) string {
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return name
}
