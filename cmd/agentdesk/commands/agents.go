package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moolen/agentdesk/internal/agent/catalog"
	"github.com/moolen/agentdesk/internal/config"
)

var (
	agentsConfig = config.Default()
	agentsOutput string
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents the server would expose",
	Long: `List the built-in agents merged with the agents file. Models are not
contacted, so this works without API keys.`,
	RunE: runAgents,
}

func init() {
	agentsCmd.Flags().StringVarP(&agentsOutput, "output", "o", "table", "Output format: table or json")
	bindConfigFlags(agentsCmd.Flags(), agentsConfig)
}

func runAgents(cmd *cobra.Command, args []string) error {
	var file *config.AgentsFile
	if agentsConfig.AgentsFile != "" {
		loaded, err := config.LoadAgentsFile(agentsConfig.AgentsFile)
		if err != nil {
			return err
		}
		file = loaded
	}

	defs, err := catalog.Merge(catalog.Builtins(agentsConfig.DataSpecFile != ""), file, agentsConfig.DefaultModel)
	if err != nil {
		return err
	}
	return printAgents(cmd.OutOrStdout(), defs, agentsOutput)
}

func printAgents(w io.Writer, defs []catalog.Definition, format string) error {
	switch format {
	case "json":
		out := make([]catalog.Summary, 0, len(defs))
		for _, def := range defs {
			out = append(out, catalog.Summary{
				Name:        def.Name,
				Description: def.Description,
				Model:       def.Model,
				Tools:       def.Tools,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)

	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tMODEL\tTOOLS\tDESCRIPTION")
		for _, def := range defs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", def.Name, def.Model, strings.Join(def.Tools, ","), def.Description)
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unknown output format %q (expected table or json)", format)
	}
}
