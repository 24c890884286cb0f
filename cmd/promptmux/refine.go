package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wagnerlima/promptmux/internal/llm"
	"github.com/wagnerlima/promptmux/internal/prompts"
)

var (
	refineTarget   string
	refineQuestion string
	refineNoStream bool
)

var refineCmd = &cobra.Command{
	Use:   "refine [text]",
	Short: "Stream a refinement of text (or stdin) to stdout",
	Long: `Sends the text to the configured provider using the chosen target's system
instruction and prints the answer as it arrives.

Targets: ` + strings.Join(prompts.Prefixes(), ", "),
	RunE: runRefine,
}

func init() {
	refineCmd.Flags().StringVarP(&refineTarget, "target", "t", "refine", "Refinement target")
	refineCmd.Flags().StringVarP(&refineQuestion, "question", "q", "", "Question to answer (qa target)")
	refineCmd.Flags().BoolVar(&refineNoStream, "no-stream", false, "Wait for the full answer instead of streaming it")
}

func runRefine(cmd *cobra.Command, args []string) error {
	target, err := prompts.Lookup(refineTarget)
	if err != nil {
		return err
	}

	content := strings.Join(args, " ")
	if content == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		content = string(data)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("nothing to refine: pass text or pipe it on stdin")
	}

	a, err := openApp(dataDir, settingsPath, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	user := target.UserMessage(content, refineQuestion)
	out := cmd.OutOrStdout()
	if refineNoStream {
		text, err := a.normalizer.Complete(ctx, target.System, user)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
		return nil
	}

	events, err := a.normalizer.Stream(ctx, target.System, user)
	if err != nil {
		return err
	}
	_, err = llm.Collect(events, target.Prefix, llm.SinkFunc(func(topic string, payload any) {
		if text, ok := payload.(string); ok && topic == target.Prefix+":"+string(llm.EventChunk) {
			fmt.Fprint(out, text)
		}
	}))
	fmt.Fprintln(out)
	return err
}
