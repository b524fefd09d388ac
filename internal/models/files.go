package models

import "strings"

const (
	// PromptExt is the extension used by rendered prompt files.
	PromptExt = ".md"
	// ResponseSuffix is appended to the prompt file stem to form the
	// result file name.
	ResponseSuffix = "_response.json"
)

func responseFileName(promptFile string) string {
	return strings.TrimSuffix(promptFile, PromptExt) + ResponseSuffix
}

// PromptStem returns the identifier portion of a prompt file name.
func PromptStem(promptFile string) string {
	return strings.TrimSuffix(promptFile, PromptExt)
}
