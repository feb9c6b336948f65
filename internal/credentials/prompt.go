package credentials

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks for values on a terminal. Secrets are read without echo
// when the input is a terminal, and as plain lines otherwise.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// NewPrompter creates a prompter reading from in and writing prompts to out
func NewPrompter(in *os.File, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
		fd:  int(in.Fd()),
	}
}

// newReaderPrompter creates a prompter over a plain reader (never a terminal)
func newReaderPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
		fd:  -1,
	}
}

// Line prompts for an echoed value
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	return p.readLine()
}

// Secret prompts for a masked value
func (p *Prompter) Secret(label string) (string, error) {
	fmt.Fprint(p.out, label)

	if p.fd >= 0 && term.IsTerminal(p.fd) {
		secret, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}
	return p.readLine()
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PromptSource asks for the username (echoed) and password (masked).
// A preset Username skips the username prompt.
type PromptSource struct {
	Prompter *Prompter
	Username string
}

// Load prompts for the missing values
func (s PromptSource) Load(ctx context.Context) (Credentials, error) {
	username := s.Username
	if username == "" {
		var err error
		username, err = s.Prompter.Line("Username: ")
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read username: %w", err)
		}
	}

	password, err := s.Prompter.Secret("Password: ")
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read password: %w", err)
	}

	return Credentials{Username: strings.TrimSpace(username), Password: password}, nil
}
