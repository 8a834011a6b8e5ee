package common

import (
	"encoding/json"
	"io"
	"time"
)

// CIResult is the JSON document catalogctl prints in --ci mode, one per
// command run.
type CIResult struct {
	OK         bool     `json:"ok"`
	Tool       string   `json:"tool"`
	Command    string   `json:"command"`
	DurationMS int64    `json:"duration_ms"`
	Details    []string `json:"details"`
	Error      string   `json:"error,omitempty"`
}

func newCIResult(tool, command string, elapsed time.Duration, details []string, err error) CIResult {
	if details == nil {
		details = []string{}
	}
	result := CIResult{
		OK:         err == nil,
		Tool:       tool,
		Command:    command,
		DurationMS: elapsed.Milliseconds(),
		Details:    details,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

func writeCIResult(w io.Writer, result CIResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
