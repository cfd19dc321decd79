package genotype

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"

	"batterybots/internal/model"
)

// Fingerprint hashes the rule list. Genomes with identical rules in the
// same order share a fingerprint regardless of ID.
func Fingerprint(g model.Genome) string {
	var b strings.Builder
	for _, rule := range g.Rules {
		for _, code := range rule.Condition {
			b.WriteString(strconv.Itoa(int(code)))
		}
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(rule.Action)))
		b.WriteByte(';')
	}
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:16]
}

// Diversity counts distinct fingerprints.
func Diversity(genomes []model.Genome) int {
	seen := make(map[string]struct{}, len(genomes))
	for _, g := range genomes {
		seen[Fingerprint(g)] = struct{}{}
	}
	return len(seen)
}
