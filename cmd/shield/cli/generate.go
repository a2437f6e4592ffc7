package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aligulzar729/shield/internal/rbac"
)

// GenerateCLI expands configured resources into catalog permissions.
type GenerateCLI struct {
	generator *rbac.Generator
}

// NewGenerateCLI constructs the command wrapper.
func NewGenerateCLI(generator *rbac.Generator) (*GenerateCLI, error) {
	if generator == nil {
		return nil, errors.New("generate cli: generator required")
	}
	return &GenerateCLI{generator: generator}, nil
}

// GenerateOptions defines available flags for the generate command.
type GenerateOptions struct {
	Guard     string
	Resources []string
	Stdout    io.Writer
	Stderr    io.Writer
}

// Command ensures permissions for every resource and prints the catalog.
func (c *GenerateCLI) Command(ctx context.Context, opts GenerateOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if len(opts.Resources) == 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "generate: no resources configured")
		return 1
	}
	ensured, err := c.generator.Generate(ctx, opts.Guard, opts.Resources)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "generate: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(opts.Stdout, "Ensured %d permission(s):\n", len(ensured))
	for _, perm := range ensured {
		_, _ = fmt.Fprintf(opts.Stdout, " - %s (%s)\n", perm.Name, c.generator.Label(perm.Name))
	}
	return 0
}
