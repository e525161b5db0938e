package setup

import (
	"bufio"
	"io"
	"strings"
)

// IOPrompter reads line-oriented responses from an io.Reader, echoing prompts
// to an io.Writer.
type IOPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOPrompter constructs a prompter from the provided reader and writer.
func NewIOPrompter(input io.Reader, output io.Writer) *IOPrompter {
	return &IOPrompter{reader: bufio.NewReader(input), writer: output}
}

// PromptLine writes the prompt and returns the trimmed response line.
func (prompter *IOPrompter) PromptLine(prompt string) (string, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return "", writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && readError != io.EOF {
		return "", readError
	}

	return strings.TrimSpace(response), nil
}

// Confirm writes the prompt and interprets affirmative responses (y/yes).
func (prompter *IOPrompter) Confirm(prompt string) (bool, error) {
	response, readError := prompter.PromptLine(prompt)
	if readError != nil {
		return false, readError
	}

	switch strings.ToLower(response) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
