package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glance/internal/core/domain"
)

var (
	pushURL    string
	pushSource string
	pushTitle  string
	pushApp    string
	pushFormat string
	pushFile   string
	pushJSON   bool
)

var pushCmd = &cobra.Command{
	Use:   "push [content]",
	Short: "Push content to the daemon",
	Long: `Push a piece of content to the running daemon for ingestion.

Content is taken from the arguments, from --file, or from stdin when
neither is given. With --json the input is a complete payload object
({"source", "url", "title", "app", "format", "content"}) and the other
flags are ignored.

Examples:
  glance push --url slack://general/1712 --source slack "standup moved to 10"
  curl -s https://example.com | glance push --url https://example.com --format html
  glance push --json --file payload.json`,
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringVar(&pushURL, "url", "", "canonical identifier of the content")
	pushCmd.Flags().StringVar(&pushSource, "source", "cli", "source kind")
	pushCmd.Flags().StringVar(&pushTitle, "title", "", "document title")
	pushCmd.Flags().StringVar(&pushApp, "app", "", "application identity")
	pushCmd.Flags().StringVar(&pushFormat, "format", domain.FormatText, "content format: text, html or markdown")
	pushCmd.Flags().StringVarP(&pushFile, "file", "f", "", "read content from a file (- for stdin)")
	pushCmd.Flags().BoolVar(&pushJSON, "json", false, "input is a JSON payload")
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	payload, err := buildPayload(cmd, args)
	if err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	bulk, _, _, err := clients()
	if err != nil {
		return err
	}
	defer bulk.Close()

	result, err := bulk.Deliver(cmd.Context(), payload)
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	cmd.Printf("%s %s (%d chunks)\n", result.Action, payload.URL, result.ChunkCount)
	return nil
}

func buildPayload(cmd *cobra.Command, args []string) (*domain.ContentPayload, error) {
	var content string
	if len(args) > 0 && !pushJSON {
		content = strings.Join(args, " ")
	} else {
		data, err := readInput(cmd.InOrStdin(), pushFile)
		if err != nil {
			return nil, err
		}
		content = string(data)
	}

	if pushJSON {
		var payload domain.ContentPayload
		if err := json.Unmarshal([]byte(content), &payload); err != nil {
			return nil, fmt.Errorf("%w: decoding payload: %w", domain.ErrInvalidInput, err)
		}
		return &payload, nil
	}

	if strings.TrimSpace(content) == "" {
		return nil, errors.New("no content to push")
	}
	return &domain.ContentPayload{
		Source:  domain.SourceKind(pushSource),
		URL:     pushURL,
		Title:   pushTitle,
		App:     pushApp,
		Format:  pushFormat,
		Content: content,
	}, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
