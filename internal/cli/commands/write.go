package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/leapconnect/internal/cli/config"
	"github.com/leapstack-labs/leapconnect/pkg/core"
)

const maxRecordLine = 16 << 20

// WriteOptions holds options for the write command.
type WriteOptions struct {
	Operation string
	IDFields  []string
	File      string
}

// NewWriteCommand creates the write command.
func NewWriteCommand() *cobra.Command {
	opts := &WriteOptions{}

	cmd := &cobra.Command{
		Use:   "write <entity>",
		Short: "Insert, upsert or update records",
		Long: `Write records to an entity. Records are JSON objects, one per line,
read from --file or standard input. Blank lines are skipped.`,
		Example: `  leapconnect write orders --operation insert --file orders.jsonl
  cat changes.jsonl | leapconnect write orders --operation update --id id`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Operation, "operation", "insert", "Write operation: insert, upsert, update")
	cmd.Flags().StringSliceVar(&opts.IDFields, "id", nil, "Key fields for upsert and update")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Read records from file instead of stdin")

	_ = cmd.RegisterFlagCompletionFunc("operation", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"insert", "upsert", "update"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runWrite(cmd *cobra.Command, entity string, opts *WriteOptions) error {
	op, err := core.ParseWriteOperation(opts.Operation)
	if err != nil {
		return err
	}

	var in io.Reader
	switch {
	case opts.File != "":
		f, err := os.Open(opts.File)
		if err != nil {
			return fmt.Errorf("failed to open records file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	case cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())):
		return errors.New("no records: pass --file or pipe JSON lines on stdin")
	default:
		in = cmd.InOrStdin()
	}

	records, err := readRecords(in)
	if err != nil {
		return err
	}

	return withSession(cmd, func(s *session) error {
		counts, err := s.Client.Write(cmd.Context(), core.WriteRequest{
			EntityIdentifier: entity,
			Operation:        op,
			Records:          records,
			IDFieldNames:     opts.IDFields,
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if resolveOutput(s.Cfg.Output, w) == config.OutputJSON {
			return renderJSON(w, map[string][]int64{"counts": counts})
		}
		var total int64
		for _, n := range counts {
			if n > 0 {
				total += n
			}
		}
		_, _ = fmt.Fprintf(w, "%s: %d records, %d rows affected\n", op, len(counts), total)
		return nil
	})
}

// readRecords returns the non-blank lines of r.
func readRecords(r io.Reader) ([]string, error) {
	var records []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordLine)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		records = append(records, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}
