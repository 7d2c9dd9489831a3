package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carshowcase/showcase/internal/openapi"
	"github.com/carshowcase/showcase/internal/server"
)

func newOpenAPICmd() *cobra.Command {
	var (
		outputFile string
		serverURL  string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI document",
		Long: `Generate the OpenAPI 3.1 document for the catalogue API. The document is
built from the same route table the server mounts.`,
		Example: `  showcase openapi                  # JSON to stdout
  showcase openapi -o api.yaml      # YAML, chosen by extension
  showcase openapi --server https://api.example.com -o api.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenAPI(cmd.OutOrStdout(), outputFile, serverURL)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout (.yaml/.yml selects YAML)")
	cmd.Flags().StringVar(&serverURL, "server", "", "Server URL to advertise in the document")

	return cmd
}

func runOpenAPI(out io.Writer, outputFile, serverURL string) error {
	doc, err := openapi.Generate(server.APIInfo(appVersion, serverURL), server.Endpoints())
	if err != nil {
		return err
	}

	marshal := openapi.MarshalJSON
	switch strings.ToLower(filepath.Ext(outputFile)) {
	case ".yaml", ".yml":
		marshal = openapi.MarshalYAML
	}
	b, err := marshal(doc)
	if err != nil {
		return err
	}

	if outputFile == "" {
		_, err = fmt.Fprintln(out, string(b))
		return err
	}
	if err := os.WriteFile(outputFile, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outputFile, err)
	}
	fmt.Fprintf(out, "Wrote %s (%d operations)\n", outputFile, len(server.Endpoints()))
	return nil
}
