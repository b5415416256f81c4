package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openbench/swe-eval-orchestrator/internal/issuefilter"
	"github.com/openbench/swe-eval-orchestrator/internal/mcp"
)

var mcpInstance string

func init() {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Interact with a GitHub MCP server the way evaluated agents see it",
	}
	mcpCmd.PersistentFlags().StringVar(&mcpInstance, "instance", "",
		"benchmark instance id scoping the issue filter")

	toolsCmd := &cobra.Command{
		Use:   "tools -- SERVER_COMMAND [ARGS...]",
		Short: "List the tool surface exposed in eval mode",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMCPTools,
	}
	mcpCmd.AddCommand(toolsCmd)

	searchCmd := &cobra.Command{
		Use:   "search QUERY -- SERVER_COMMAND [ARGS...]",
		Short: "Run a filtered issue search",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runMCPSearch,
	}
	mcpCmd.AddCommand(searchCmd)

	rootCmd.AddCommand(mcpCmd)
}

func connectMCP(args []string) (*mcp.Client, error) {
	return mcp.NewClient(args[0], args[1:], os.Environ())
}

func filterTask() (*issuefilter.Task, error) {
	if mcpInstance == "" {
		return nil, nil
	}
	return issuefilter.NewTask(mcpInstance)
}

func runMCPTools(cmd *cobra.Command, args []string) error {
	client, err := connectMCP(args)
	if err != nil {
		return err
	}
	defer client.Close()

	tools, err := client.ListTools()
	if err != nil {
		return err
	}
	tools = mcp.RestrictToolsForEval(tools)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tDESCRIPTION")
	for _, t := range tools {
		fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
	}
	w.Flush()

	return nil
}

func runMCPSearch(cmd *cobra.Command, args []string) error {
	task, err := filterTask()
	if err != nil {
		return err
	}

	client, err := connectMCP(args[1:])
	if err != nil {
		return err
	}
	defer client.Close()

	filtered := mcp.NewFilteringClient(client, task)
	result, err := filtered.CallTool("search_issues", map[string]interface{}{
		"q": args[0],
	})
	if err != nil {
		return err
	}

	for _, content := range result.Content {
		fmt.Println(content.Text)
	}
	return nil
}
