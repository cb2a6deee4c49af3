package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Confirmer decides whether an upload of files goes ahead.
type Confirmer interface {
	Confirm(ctx context.Context, files []string) (bool, error)
}

var (
	_ Confirmer = (*PromptConfirmer)(nil)
	_ Confirmer = (*ListConfirmer)(nil)
	_ Confirmer = AutoConfirmer{}
)

// PromptConfirmer asks on a line-based prompt: "l" lists the files and asks
// again, "u" uploads, anything else aborts.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptConfirmer creates a prompt reading from in and writing to out.
// Nil values use stdin and stdout.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

func (p *PromptConfirmer) Confirm(ctx context.Context, files []string) (bool, error) {
	fmt.Fprintf(p.out, "Found %d files. Press \"L\" to list, or \"U\" to start the upload.\n", len(files))
	response, err := p.ask(ctx)
	if err != nil {
		return false, err
	}

	fmt.Fprintln(p.out)
	if response == "l" {
		sorted := append([]string(nil), files...)
		sort.Strings(sorted)

		fmt.Fprintln(p.out, "Listing found, supported files")
		for _, f := range sorted {
			fmt.Fprintf(p.out, " - %s\n", f)
		}
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, "Press \"U\" to start the upload if this looks reasonable.")

		if response, err = p.ask(ctx); err != nil {
			return false, err
		}
	}

	if response == "u" {
		fmt.Fprintln(p.out, "Starting upload.")
		return true, nil
	}

	fmt.Fprintln(p.out, "Aborting")
	return false, nil
}

// ask reads one answer, lowercased. End of input counts as an empty answer.
func (p *PromptConfirmer) ask(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprint(p.out, "--> ")
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

// AutoConfirmer always uploads. Used for non-interactive runs.
type AutoConfirmer struct {
	Out io.Writer
}

func (a AutoConfirmer) Confirm(_ context.Context, files []string) (bool, error) {
	if a.Out != nil {
		fmt.Fprintf(a.Out, "Found %d files.\nStarting upload.\n", len(files))
	}
	return true, nil
}
