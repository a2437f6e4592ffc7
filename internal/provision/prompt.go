package provision

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter suspends the provisioning run at defined points to collect
// operator input. Implementations decide how input is gathered; tests
// feed canned responses.
type Prompter interface {
	// Select asks the operator to pick one of the options.
	Select(label string, options []string) (string, error)
	// Ask collects a free-text answer.
	Ask(label string) (string, error)
	// AskSecret collects a free-text answer without echoing it.
	AskSecret(label string) (string, error)
}

// TerminalPrompter reads answers from an input stream, masking secrets
// when the stream is an interactive terminal.
type TerminalPrompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

// NewTerminalPrompter constructs a prompter over the given streams.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, reader: bufio.NewReader(in), out: out}
}

func (p *TerminalPrompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Select prints the options and reads the chosen value.
func (p *TerminalPrompter) Select(label string, options []string) (string, error) {
	fmt.Fprintf(p.out, "%s\n", label)
	for i, option := range options {
		fmt.Fprintf(p.out, "  [%d] %s\n", i+1, option)
	}
	fmt.Fprint(p.out, "> ")
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	for i, option := range options {
		if answer == option || answer == fmt.Sprintf("%d", i+1) {
			return option, nil
		}
	}
	return answer, nil
}

// Ask prints the label and reads one line.
func (p *TerminalPrompter) Ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	return p.readLine()
}

// AskSecret reads a line without echo when stdin is a terminal and
// falls back to a plain read otherwise.
func (p *TerminalPrompter) AskSecret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if file, ok := p.in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		raw, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return p.readLine()
}

var _ Prompter = (*TerminalPrompter)(nil)
