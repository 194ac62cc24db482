package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"wildlens/internal/recognition"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// decisionPayload prepares a decision for JSON output. The debug block is
// stripped unless explicitly requested since it dwarfs the decision itself.
func decisionPayload(decision *recognition.Decision, includeDebug bool) *recognition.Decision {
	if includeDebug || decision.Debug == nil {
		return decision
	}
	trimmed := *decision
	trimmed.Debug = nil
	return &trimmed
}
