package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"
	"github.com/tbxark/ticketagent/agent"
	"github.com/tbxark/ticketagent/types"
)

func newChatCommand() *cobra.Command {
	var requester string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the agent in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				if cErr := a.Close(); cErr != nil {
					slog.Warn("Failed to close store", "error", cErr)
				}
			}()
			return chat(cmd.Context(), a, requester, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&requester, "requester", "", "requester e-mail, used to prefill email fields")
	return cmd
}

func chat(ctx context.Context, a *app, requester string, in io.Reader, out io.Writer) error {
	ticketAgent := agent.NewTicketAgent(
		"TicketAgent",
		"Turns a free-text request into service desk tickets and asks for missing details",
		a.engine,
	)
	runner := adk.NewRunner(ctx, adk.RunnerConfig{Agent: ticketAgent})
	history := agent.NewMemoryHistoryStore(agent.KeepSystemLastNTrimmer{N: a.config.History.Window})
	ctx = agent.WithRequester(ctx, requester)

	state, err := a.engine.Start(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Describe what you need. /pending shows open questions, /new starts over, Ctrl-D quits.")
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "you: ")
		input, rErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if rErr != nil {
				fmt.Fprintln(out)
				return nil
			}
			continue
		}
		switch input {
		case "/pending":
			current, _, err := a.engine.Session(ctx, state.SessionID)
			if err != nil {
				return err
			}
			if current == nil || current.Plan == nil {
				fmt.Fprintln(out, "No plan yet.")
			} else {
				fmt.Fprintln(out, strings.TrimRight(types.FormatPending(current.Plan, current.Pending), "\n"))
			}
			continue
		case "/new":
			_ = history.Clear(ctx, state.SessionID)
			if state, err = a.engine.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Starting a new request.")
			continue
		}
		chatCtx := agent.WithSessionID(ctx, state.SessionID)
		msgs, err := history.Append(chatCtx, state.SessionID, schema.UserMessage(input))
		if err != nil {
			return err
		}
		reply, err := runTurn(chatCtx, runner, msgs)
		if err != nil {
			return err
		}
		if _, err := history.Append(chatCtx, state.SessionID, reply); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nagent: %s\n======\n", reply.Content)

		current, _, err := a.engine.Session(ctx, state.SessionID)
		if err != nil {
			return err
		}
		if current != nil && current.Phase == types.PhaseComplete {
			_ = history.Clear(ctx, state.SessionID)
			if state, err = a.engine.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Starting a new request.")
		}
		if rErr != nil {
			return nil
		}
	}
}

func runTurn(ctx context.Context, runner *adk.Runner, msgs []*schema.Message) (*schema.Message, error) {
	iter := runner.Run(ctx, msgs)
	var reply *schema.Message
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		if event.Err != nil {
			return nil, event.Err
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}
		msg, err := event.Output.MessageOutput.GetMessage()
		if err != nil {
			return nil, err
		}
		reply = msg
	}
	if reply == nil {
		return nil, errors.New("agent produced no reply")
	}
	return reply, nil
}
