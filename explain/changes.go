package explain

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// signatureChange pairs a source pattern with the human-readable summary
// emitted when the rule optimizer removed it.
type signatureChange struct {
	signature string
	summary   string
}

var signatureChanges = []signatureChange{
	{"not not ", "Removed double negation (not not x → x)"},
	{" and True", "Removed redundant 'and True' in boolean expression"},
	{" + 0", "Folded arithmetic identity (x + 0 → x)"},
	{" * 1", "Folded arithmetic identity (x * 1 → x)"},
	{".append(", "Converted append-loop to list comprehension"},
}

// DetectRuleChanges produces the human-readable summary of what the
// rule-based optimizer changed between the two snapshots. The list is
// order-significant for display. When the snapshots are identical it contains
// exactly the sentinel entry.
func DetectRuleChanges(original, optimized string) []string {
	var changes []string
	orig := strings.TrimSpace(original)
	opt := strings.TrimSpace(optimized)

	if removed := linesRemoved(orig, opt); removed > 0 {
		plural := "s"
		if removed == 1 {
			plural = ""
		}
		changes = append(changes, fmt.Sprintf(
			"Reduced code by %d line%s via dead-code elimination", removed, plural))
	}

	for _, sc := range signatureChanges {
		if strings.Contains(orig, sc.signature) && !strings.Contains(opt, sc.signature) {
			changes = append(changes, sc.summary)
		}
	}

	if strings.Contains(orig, "len(") && !strings.Contains(opt, "len(") && strings.Contains(opt, "not ") {
		changes = append(changes, "Replaced len(x) == 0 with idiomatic 'not x'")
	}

	if len(changes) == 0 && orig != opt {
		changes = append(changes, "Applied constant folding and arithmetic simplification")
	}

	if orig == opt {
		changes = append(changes, SentinelNoRuleChanges)
	}

	return changes
}

// linesRemoved computes the net line reduction between the snapshots from a
// line-level diff, so reordered but preserved lines do not count as removed.
func linesRemoved(original, optimized string) int {
	if original == optimized {
		return 0
	}

	dmp := diffmatchpatch.New()
	origChars, optChars, lines := dmp.DiffLinesToChars(original+"\n", optimized+"\n")
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(origChars, optChars, false), lines)

	deleted, inserted := 0, 0
	for _, diff := range diffs {
		count := strings.Count(diff.Text, "\n")
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			deleted += count
		case diffmatchpatch.DiffInsert:
			inserted += count
		}
	}

	if net := deleted - inserted; net > 0 {
		return net
	}
	return 0
}
