// Package render turns skill documents into prompt payloads. The document
// body is treated as a text/template with argument substitution and a small
// FuncMap (bash command splicing, environment lookup, timestamps), wrapped
// in a one-line envelope that identifies the skill to the consuming agent.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/skillet-cli/skillet/pkg/logger"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

// bashTimeout bounds template-spliced command execution
const bashTimeout = 30 * time.Second

// BundleSeparator divides skills in a multi-skill payload
const BundleSeparator = "\n---\n\n"

// Renderer renders skill documents into prompt payloads
type Renderer struct {
	bashEnabled bool
}

// Option is a function that configures a Renderer
type Option func(*Renderer)

// WithBashDisabled turns the bash template function into an error message
// instead of executing commands. Used by the server and MCP surfaces where
// template authors are not the operator.
func WithBashDisabled() Option {
	return func(r *Renderer) {
		r.bashEnabled = false
	}
}

// New creates a Renderer. Bash splicing is enabled by default, matching
// CLI usage where the operator controls both the document and the command.
func New(opts ...Option) *Renderer {
	r := &Renderer{bashEnabled: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders a document body with the given template arguments and
// wraps it in the prompt envelope.
func (r *Renderer) Render(ctx context.Context, doc *skilldoc.Document, args map[string]string) (string, error) {
	body, err := r.RenderBody(ctx, doc, args)
	if err != nil {
		return "", err
	}
	return Envelope(doc) + "\n\n" + strings.TrimLeft(body, "\n"), nil
}

// RenderBody renders the document body without the envelope
func (r *Renderer) RenderBody(ctx context.Context, doc *skilldoc.Document, args map[string]string) (string, error) {
	tmpl, err := template.New(doc.Key()).Funcs(r.funcMap(ctx)).Parse(doc.Body)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse skill template %q", doc.Key())
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, args); err != nil {
		return "", errors.Wrapf(err, "failed to execute skill template %q", doc.Key())
	}

	return buf.String(), nil
}

// Bundle renders several documents into one deterministic payload: sorted
// by key, one envelope per skill, separated by horizontal rules.
func (r *Renderer) Bundle(ctx context.Context, docs []*skilldoc.Document, args map[string]string) (string, error) {
	sorted := make([]*skilldoc.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Key() < sorted[j].Key()
	})

	parts := make([]string, 0, len(sorted))
	for _, doc := range sorted {
		rendered, err := r.Render(ctx, doc, args)
		if err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimRight(rendered, "\n")+"\n")
	}

	return strings.Join(parts, BundleSeparator), nil
}

// Envelope returns the header line an agent runtime uses to attribute the
// payload: the skill key, name, and description.
func Envelope(doc *skilldoc.Document) string {
	header := fmt.Sprintf("[Skill: %s]", doc.Key())
	if doc.Name != "" {
		header += " " + doc.Name
	}
	if doc.Description != "" {
		header += " - " + doc.Description
	}
	return header
}

// Fingerprint derives a stable cache key fragment from template arguments
func Fingerprint(args map[string]string) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(args[k])
		sb.WriteByte(';')
	}
	return sb.String()
}

func (r *Renderer) funcMap(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"bash": r.createBashFunc(ctx),
		"env":  os.Getenv,
		"now": func() string {
			return time.Now().Format(time.RFC3339)
		},
		"default": func(fallback, value string) string {
			if value == "" {
				return fallback
			}
			return value
		},
	}
}

// createBashFunc returns the template function that splices command output
// into the rendered body. Failures render as inline error markers rather
// than aborting the whole document.
func (r *Renderer) createBashFunc(ctx context.Context) func(...string) string {
	return func(args ...string) string {
		if !r.bashEnabled {
			return "[ERROR: bash function is disabled]"
		}
		if len(args) == 0 {
			return "[ERROR: bash function requires at least one argument]"
		}

		command := args[0]
		cmdArgs := args[1:]

		logger.G(ctx).WithFields(map[string]interface{}{
			"command": command,
			"args":    cmdArgs,
		}).Debug("executing template command")

		cmdCtx, cancel := context.WithTimeout(ctx, bashTimeout)
		defer cancel()

		cmd := exec.CommandContext(cmdCtx, command, cmdArgs...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			fullCmd := append([]string{command}, cmdArgs...)
			logger.G(ctx).WithFields(map[string]interface{}{
				"command": command,
				"args":    cmdArgs,
			}).WithError(err).Warn("template command failed")
			return fmt.Sprintf("[ERROR executing command '%s': %v]", strings.Join(fullCmd, " "), err)
		}

		return strings.TrimRight(string(output), "\n\r")
	}
}
