package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdziat/langfuse-annotator/internal/annotation"
	pkgerrors "github.com/jdziat/langfuse-annotator/pkg/errors"
	"github.com/jdziat/langfuse-annotator/pkg/logging"
)

const annotateHelp = `Commands:
  n, next               go to the next item
  p, prev               go to the previous item
  set <score> <value>   select a value for a score (name or config id)
  comment <text>        attach a comment to the submission
  submit                submit all scores and mark the item completed
  show                  print the current item again
  help                  print this help
  q, quit, exit         leave
`

func newAnnotateCommand(a *app) *cobra.Command {
	var itemID string

	cmd := &cobra.Command{
		Use:   "annotate <queueId>",
		Short: "Annotate queue items interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			ws := annotation.NewWorkspace(args[0], annotation.NewClientBackend(c),
				annotation.NewMemoryLocation(itemID), a.logger)
			return runAnnotate(cmd.Context(), ws, a.stdin, a.stdout, a.logger)
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "Item id to start from")
	return cmd
}

// session is one interactive annotation loop.
type session struct {
	ws     *annotation.Workspace
	out    io.Writer
	logger logging.StructuredLogger
}

// runAnnotate opens ws and reads commands from in until quit or EOF.
func runAnnotate(ctx context.Context, ws *annotation.Workspace, in io.Reader, out io.Writer, logger logging.StructuredLogger) error {
	if err := ws.Open(ctx); err != nil {
		return err
	}
	s := &session{ws: ws, out: out, logger: logging.OrNop(logger)}
	v := ws.View()
	if v.Queue == nil {
		return fmt.Errorf("queue %q not found", ws.QueueID())
	}
	s.show(v)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(cmd) {
		case "":
		case "n", "next":
			if ws.Next(ctx) {
				s.show(ws.View())
			} else {
				fmt.Fprintln(out, "Already at the last item.")
			}
		case "p", "prev":
			if ws.Prev(ctx) {
				s.show(ws.View())
			} else {
				fmt.Fprintln(out, "Already at the first item.")
			}
		case "set":
			s.set(arg)
		case "comment":
			ws.SetComment(arg)
			fmt.Fprintln(out, "Comment saved.")
		case "submit":
			s.submit(ctx)
		case "show":
			s.show(ws.View())
		case "help", "?":
			fmt.Fprint(out, annotateHelp)
		case "q", "quit", "exit":
			return nil
		default:
			fmt.Fprintf(out, "Unknown command %q. Type help for a list of commands.\n", cmd)
		}
	}
}

func (s *session) set(arg string) {
	name, text, ok := strings.Cut(arg, " ")
	if !ok || strings.TrimSpace(text) == "" {
		fmt.Fprintln(s.out, "Usage: set <score> <value>")
		return
	}
	cfg, ok := s.ws.Config(name)
	if !ok {
		fmt.Fprintf(s.out, "Unknown score %q.\n", name)
		return
	}
	if v := s.ws.View(); v.Completed {
		fmt.Fprintln(s.out, "This item is already completed.")
		return
	}
	value, err := annotation.ParseInput(cfg, strings.TrimSpace(text))
	if err != nil {
		fmt.Fprintf(s.out, "Invalid value: %v\n", err)
		return
	}
	if !annotation.Controls(cfg).Accepts(value) {
		fmt.Fprintf(s.out, "Value %s is not allowed for %s.\n", formatNumber(value), cfg.Name)
		return
	}
	s.ws.Select(cfg.ID, value)
	fmt.Fprintf(s.out, "%s = %s\n", cfg.Name, formatNumber(value))
}

func (s *session) submit(ctx context.Context) {
	res, err := s.ws.Submit(ctx)
	switch {
	case err == nil:
	case errors.Is(err, annotation.ErrIncompleteScores):
		fmt.Fprintf(s.out, "Please provide all scores before submitting (%v).\n", err)
		return
	case errors.Is(err, annotation.ErrAlreadyCompleted):
		fmt.Fprintln(s.out, "This item is already completed.")
		return
	case errors.Is(err, annotation.ErrNoItems):
		fmt.Fprintln(s.out, "There are no items in this queue.")
		return
	default:
		if verr, ok := pkgerrors.AsValidationError(err); ok {
			fmt.Fprintf(s.out, "Invalid scores: %v\n", verr)
			return
		}
		s.logger.Error("Error submitting scores", "code", pkgerrors.CodeOf(err), "error", err)
		fmt.Fprintln(s.out, "Failed to submit scores. Please try again.")
		return
	}

	fmt.Fprintf(s.out, "Submitted scores for %s.\n", res.Item.ID)
	if res.NextItemID == "" {
		fmt.Fprintln(s.out, "That was the last item.")
	}
	s.show(s.ws.View())
}

// show prints the item header, its conversation and its score panel.
func (s *session) show(v annotation.View) {
	out := s.out
	name := v.QueueID
	if v.Queue != nil {
		name = v.Queue.Name
	}
	if v.Item == nil {
		fmt.Fprintf(out, "Queue %s has no items.\n", name)
		return
	}

	fmt.Fprintf(out, "\n%s: item %d of %d (%s %s)\n", name, v.Position, v.Total, v.Item.ObjectType, v.Item.ObjectID)
	if len(v.Messages) == 0 {
		fmt.Fprintln(out, "  (no messages)")
	}
	for _, msg := range v.Messages {
		fmt.Fprintf(out, "\n[%s]\n%s\n", msg.Role, msg.Content)
	}
	if len(v.Scores) > 0 {
		fmt.Fprintln(out, "\nExisting scores:")
		for _, sc := range v.Scores {
			fmt.Fprintf(out, "  %s: %v\n", sc.Name, scoreValue(sc.Value, sc.StringValue))
		}
	}

	fmt.Fprintln(out)
	if v.Completed {
		if v.CompletedAt != nil && !v.CompletedAt.IsZero() {
			fmt.Fprintf(out, "This item was scored on %s.\n", v.CompletedAt.Local().Format("Jan 2, 2006 3:04 PM"))
		} else {
			fmt.Fprintln(out, "This item was already scored.")
		}
		return
	}
	for _, c := range v.Controls {
		selected := "-"
		if val, ok := v.Selected[c.ConfigID]; ok {
			selected = formatNumber(val)
		}
		fmt.Fprintf(out, "  %s [%s]: %s\n", c.Name, describeControl(c), selected)
	}
	if v.Comment != "" {
		fmt.Fprintf(out, "  comment: %s\n", v.Comment)
	}
	if !v.CanSubmit {
		fmt.Fprintf(out, "Missing: %s\n", strings.Join(v.Missing, ", "))
	}
}

func describeControl(c annotation.Control) string {
	if c.Kind == annotation.ControlButtons {
		parts := make([]string, 0, len(c.Options))
		for _, opt := range c.Options {
			if opt.Label == formatNumber(opt.Value) {
				parts = append(parts, opt.Label)
			} else {
				parts = append(parts, fmt.Sprintf("%s=%s", opt.Label, formatNumber(opt.Value)))
			}
		}
		return strings.Join(parts, " ")
	}
	switch {
	case c.Min != nil && c.Max != nil:
		return fmt.Sprintf("%s..%s", formatNumber(*c.Min), formatNumber(*c.Max))
	case c.Min != nil:
		return ">= " + formatNumber(*c.Min)
	case c.Max != nil:
		return "<= " + formatNumber(*c.Max)
	}
	return "number"
}

func scoreValue(v any, label string) any {
	if label != "" {
		return label
	}
	if f, ok := v.(float64); ok {
		return formatNumber(f)
	}
	return v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
