package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/cloudbuild-relay/internal/domain/entities"
)

func newProcessCommand(opts *globalOptions) *cobra.Command {
	var (
		event   string
		headers []string
	)

	cmd := &cobra.Command{
		Use:   "process <body-file|->",
		Short: "Run a captured webhook body through the relay once",
		Long: `Run a captured webhook body through the relay once.

The event header defaults to ProjectBuildSuccess. Additional headers, such as
a captured signature, are given as --header "Name: value". An explicit --event
replaces any event header given with --header.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			raw, err := parseHeaders(headers)
			if err != nil {
				return err
			}
			applyEvent(raw, event, cmd.Flags().Changed("event"))

			cfg, err := loadConfig(cmd.Context(), opts)
			if err != nil {
				return err
			}

			logger, closer, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			//nolint:errcheck // Defer close on log file
			defer closer.Close()

			processor, err := newProcessor(cfg, logger, nil)
			if err != nil {
				return err
			}

			processor.Process(cmd.Context(), entities.NewHeaders(raw), body)
			return nil
		},
	}

	cmd.Flags().StringVar(&event, "event", entities.EventBuildSuccess, "Value of the event header")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, `Extra header as "Name: value" (repeatable)`)
	return cmd
}

// readBody reads a file, or stdin when path is "-"
func readBody(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	//nolint:gosec // G304: path is an operator-supplied CLI argument
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

// parseHeaders splits "Name: value" pairs
func parseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs)+1)
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", pair)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// applyEvent sets the event header. An explicit --event replaces every
// spelling of the header; the default only fills in a missing one.
func applyEvent(raw map[string]string, event string, explicit bool) {
	for name := range raw {
		if !strings.EqualFold(name, entities.HeaderEvent) {
			continue
		}
		if !explicit {
			return
		}
		delete(raw, name)
	}
	if event != "" {
		raw[entities.HeaderEvent] = event
	}
}
