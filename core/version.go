package core

// Tool identity recorded in output metadata.
const (
	ToolName = "cactus-embedder"
	Version  = "0.1.0"
)

// ToolID returns the tool identity string written to output documents.
func ToolID() string {
	return ToolName + " v" + Version
}
