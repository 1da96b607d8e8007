package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opsmedic/opsmedic/internal/domain/approval"
	"github.com/opsmedic/opsmedic/internal/domain/model/workcase"
	"github.com/opsmedic/opsmedic/internal/infrastructure/di"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive diagnose-and-repair session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := di.NewContainer(globalConfig, GetLogger())
			if err != nil {
				return err
			}
			defer container.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runChat(ctx, container, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runChat(ctx context.Context, container *di.Container, in io.Reader, out io.Writer) error {
	orch := container.Orchestrator()
	c := container.Case()
	sess := container.Session()

	fmt.Fprintf(out, "opsmedic session %s (provider: %s)\n", sess.ID(), container.Gateway().Name())
	fmt.Fprintln(out, `Describe the problem. Approve repairs with "GO REPAIR: <steps>". Type "exit" to quit.`)

	scanner := bufio.NewScanner(in)
	for ctx.Err() == nil {
		fmt.Fprintf(out, "\n[%s] you> ", c.State())
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		reply, err := orch.HandleMessage(ctx, c, sess, line)
		if err != nil {
			printChatError(out, err)
			continue
		}
		fmt.Fprintf(out, "\nopsmedic> %s\n", reply)

		if c.State().IsTerminal() {
			fmt.Fprintf(out, "\ncase closed in %s\n", c.State())
			break
		}
	}

	usage := orch.Usage()
	fmt.Fprintf(out, "\ntokens used: %d in / %d out\n", usage.InputTokens, usage.OutputTokens)
	return scanner.Err()
}

// printChatError renders known failure classes as operator guidance
// instead of raw errors. Provider failures leave the transcript
// intact, so the operator can simply send the message again.
func printChatError(out io.Writer, err error) {
	var serr *approval.SyntaxError
	var verr *workcase.StateViolationError

	switch {
	case errors.As(err, &serr):
		fmt.Fprintf(out, "\ninvalid approval: %s\n", serr.Reason)
		fmt.Fprintln(out, `use e.g. "GO REPAIR: 1,3-5"`)
	case errors.As(err, &verr):
		fmt.Fprintf(out, "\napproval rejected: %s\n", verr.Error())
	default:
		fmt.Fprintf(out, "\nerror: %v\n", err)
	}
}
