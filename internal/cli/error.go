package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"

	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/project"
)

var codeStyle = lipgloss.NewStyle().Faint(true).MarginLeft(2)

// ErrorHandler prints err under fang's error header. Binding failures are
// followed by their diagnostic code, and flag or argument errors by a usage
// hint.
func ErrorHandler(w io.Writer, styles fang.Styles, err error) {
	mustN(fmt.Fprintln(w, styles.ErrorHeader.String()))
	mustN(fmt.Fprintln(w, lipgloss.NewStyle().MarginLeft(2).Render(err.Error())))
	mustN(fmt.Fprintln(w))

	switch {
	case isUsageError(err):
		mustN(fmt.Fprintln(w, "  "+styles.ErrorText.UnsetWidth().Render("Try --help for usage.")))
		mustN(fmt.Fprintln(w))

	case errors.Is(err, project.ErrTableNotFound):
		mustN(fmt.Fprintln(w, codeStyle.Render("List the project's tables with: dtinfer infer PROJECT --output yaml")))
		mustN(fmt.Fprintln(w))

	default:
		if code := diag.Classify(err); code != diag.CodeUnknown {
			mustN(fmt.Fprintln(w, codeStyle.Render("code: "+string(code))))
			mustN(fmt.Fprintln(w))
		}
	}
}

// isUsageError matches cobra's unexported usage error messages.
func isUsageError(err error) bool {
	s := err.Error()
	for _, prefix := range []string{
		"flag needs an argument:",
		"unknown flag:",
		"unknown shorthand flag:",
		"unknown command",
		"invalid argument",
		"accepts ",
		"requires at least",
	} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func mustN(_ int, err error) {
	must(err)
}
