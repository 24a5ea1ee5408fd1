package tool

// Result captures the outcome of a single tool execution.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Data    any    `json:"data,omitempty"`
}

// Ok builds a successful Result with the given textual output.
func Ok(output string) *Result {
	return &Result{Success: true, Output: output}
}
