// Package prompts builds the LLM prompts used by the project resolver.
package prompts

import (
	"fmt"
	"strings"
)

// DisambiguationSystem instructs the model to answer with exactly one
// candidate name so the resolver can validate the reply against the
// candidate set.
const DisambiguationSystem = "You match a user's project reference to one candidate project name. " +
	"Reply with exactly one candidate name, nothing else. Reply AMBIGUOUS if none clearly fits."

// BuildDisambiguationPrompt assembles the user prompt for ranking ambiguous
// project references: the raw reference, conversational context, and the
// candidate names the reply must come from.
func BuildDisambiguationPrompt(query, activeProject string, history, candidates []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User reference: %q\n", query)
	if activeProject != "" {
		fmt.Fprintf(&b, "Active project: %s\n", activeProject)
	}
	if len(history) > 0 {
		fmt.Fprintf(&b, "Recent projects: %s\n", strings.Join(history, ", "))
	}
	b.WriteString("Candidates:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	return b.String()
}
