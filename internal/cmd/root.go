package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codesandbox",
	Short: "📦 Terminal client for remote code sandboxes",
	Long: `# 📦 codesandbox

**Attach to a sandbox's shell and watch its working tree change, all from your terminal.**

## ✨ Features

- 🖥️  **Interactive TUI** with terminal, diff and explorer tabs
- 🔌 **Raw attach** that turns your terminal into the sandbox's shell
- 📝 **Live diffs** of the sandbox's uncommitted changes
- 📁 **Explorer** to browse the host and start new sandboxes
- 🎞️  **Recording** of terminal output for later replay

## 🚀 Getting Started

Run **codesandbox open <target>** to open the TUI for a sandbox, or
**codesandbox open** with no target to pick a directory and start one.

A page URL works anywhere a target does:
` + "```bash\ncodesandbox open 'https://host/container/abc123?run=make%20dev'\n```",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	addGlobalFlags(rootCmd)

	// Set custom help function to use Glow for beautiful markdown rendering
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderMarkdownHelp(cmd)
	})
}

// renderMarkdownHelp renders command help using glamour for beautiful markdown display
func renderMarkdownHelp(cmd *cobra.Command) {
	rendered, err := renderHelp(cmd, 100)
	if err != nil {
		// Fallback to default usage if glamour fails
		_ = cmd.Usage()
		return
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
}

func renderHelp(cmd *cobra.Command, wrap int) (string, error) {
	// Create the help content
	var helpContent strings.Builder

	// Add the long description if available
	if cmd.Long != "" {
		helpContent.WriteString(cmd.Long)
		helpContent.WriteString("\n\n")
	} else if cmd.Short != "" {
		helpContent.WriteString("# " + cmd.Short)
		helpContent.WriteString("\n\n")
	}

	// Add usage
	helpContent.WriteString("## 📖 Usage\n\n")
	helpContent.WriteString("```bash\n")
	helpContent.WriteString(cmd.UseLine())
	helpContent.WriteString("\n```\n\n")

	// Add available commands
	if cmd.HasAvailableSubCommands() {
		helpContent.WriteString("## 🔧 Available Commands\n\n")
		for _, subCmd := range cmd.Commands() {
			if subCmd.IsAvailableCommand() {
				helpContent.WriteString(fmt.Sprintf("- **%s** - %s\n", subCmd.Name(), subCmd.Short))
			}
		}
		helpContent.WriteString("\n")
	}

	// Add flags
	if cmd.HasAvailableLocalFlags() {
		helpContent.WriteString("## ⚙️  Flags\n\n")
		if flagUsages := cmd.LocalFlags().FlagUsages(); flagUsages != "" {
			helpContent.WriteString("```\n")
			helpContent.WriteString(flagUsages)
			helpContent.WriteString("```\n\n")
		}
	}

	// Add global flags if this is a subcommand
	if cmd.HasParent() && cmd.InheritedFlags().HasFlags() {
		helpContent.WriteString("## 🌐 Global Flags\n\n")
		if inheritedUsages := cmd.InheritedFlags().FlagUsages(); inheritedUsages != "" {
			helpContent.WriteString("```\n")
			helpContent.WriteString(inheritedUsages)
			helpContent.WriteString("```\n\n")
		}
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(helpContent.String())
}
