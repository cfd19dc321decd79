package scapeid

import "strings"

// Normalize canonicalizes scape names and their short aliases.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	if canonical, ok := canonicalScapeName(strings.TrimPrefix(normalized, "scape-")); ok {
		return canonical
	}
	return normalized
}

func canonicalScapeName(alias string) (string, bool) {
	switch strings.ReplaceAll(alias, "-", "") {
	case "forage", "default", "standard":
		return "forage", true
	case "foragelarge", "large":
		return "forage-large", true
	case "foragesparse", "sparse":
		return "forage-sparse", true
	default:
		return "", false
	}
}
