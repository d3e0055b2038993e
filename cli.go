package rebrander

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RunCmdOptions contains options for customizing RunCmd behavior
type RunCmdOptions struct {
	// MCPTransport allows providing a custom transport for MCP server (used for testing)
	MCPTransport *mcp.InMemoryTransport
	// Stdout writer for normal output (defaults to os.Stdout)
	Stdout io.Writer
	// Stderr writer for error output (defaults to os.Stderr)
	Stderr io.Writer
}

// commandContext holds runtime context for command execution
type commandContext struct {
	stdout io.Writer
	stderr io.Writer
	config *Config
}

func RunCmd(args []string, options *RunCmdOptions) error {
	stdout := io.Writer(os.Stdout)
	stderr := io.Writer(os.Stderr)
	if options != nil {
		if options.Stdout != nil {
			stdout = options.Stdout
		}
		if options.Stderr != nil {
			stderr = options.Stderr
		}
	}

	if len(args) < 1 {
		return ShowHelp(stdout)
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		help       = fs.Bool("h", false, "Show help")
		mcpOption  = fs.Bool("mcp", false, "Run as MCP server")
		verbose    = fs.Bool("v", false, "Verbose output")
		configFile = fs.String("config", "", "Path to mapping configuration file")
	)

	if len(args) > 1 {
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
	}

	if *help {
		return ShowHelp(stdout)
	}

	if *mcpOption {
		var transport *mcp.InMemoryTransport
		if options != nil && options.MCPTransport != nil {
			transport = options.MCPTransport
		}
		return RunMCPServer(*configFile, transport)
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return ShowHelp(stdout)
	}

	config, err := LoadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cmdCtx := &commandContext{
		stdout: stdout,
		stderr: stderr,
		config: config,
	}

	ctx := context.Background()

	switch remaining[0] {
	case "plan":
		return runCommand(ctx, cmdCtx, remaining[1:], true, *verbose)
	case "apply":
		return runCommand(ctx, cmdCtx, remaining[1:], false, *verbose)
	case "validate":
		return validateCommand(cmdCtx, remaining[1:])
	case "classify":
		return classifyCommand(cmdCtx, remaining[1:])
	default:
		return fmt.Errorf("unknown command: %s", remaining[0])
	}
}

func ShowHelp(w io.Writer) error {
	help := `Rebrander - Rewrite and relocate a source tree for a new set of identifiers

Usage:
  rebrander [OPTIONS] COMMAND [ARGS...]
  rebrander -mcp               Run as MCP server

Options:
  -h, --help           Show this help message
  -v, --verbose        Enable verbose output
  --config FILE        Path to mapping configuration file
  -mcp                 Run as MCP server

Commands:
  plan         Preview the rewrite and relocation without touching the tree
  apply        Rewrite files in place and relocate the package directory
  validate     Validate the mapping set and print substitution order
  classify     Show which rewrite strategy each path gets

Examples:
  rebrander --config=rebrand.yaml plan --root="/path/to/project"
  rebrander --config=rebrand.yaml apply --root="/path/to/project" --json
  rebrander --config=rebrand.yaml validate
  rebrander classify --paths="AndroidManifest.xml,build.gradle,MainActivity.kt"
  rebrander -mcp --config=rebrand.yaml
`
	_, _ = fmt.Fprint(w, help)
	return nil
}

func runCommand(ctx context.Context, cmdCtx *commandContext, args []string, dryRun bool, verbose bool) error {
	name := "apply"
	if dryRun {
		name = "plan"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cmdCtx.stderr)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	root := fs.String("root", cwd, "Project root directory")
	force := fs.Bool("force", false, "Merge into an existing destination directory")
	jsonOutput := fs.Bool("json", false, "Output report as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	runConfig := *cmdCtx.config
	if *force {
		runConfig.Force = true
	}

	engine, err := NewEngine(&runConfig)
	if err != nil {
		return err
	}

	if dryRun {
		_, _ = fmt.Fprintln(cmdCtx.stdout, "DRY RUN MODE - No files will be modified")
	}

	report, runErr := engine.Run(ctx, *root, dryRun)

	if *jsonOutput {
		if err := json.NewEncoder(cmdCtx.stdout).Encode(report); err != nil {
			return err
		}
	} else {
		printReport(cmdCtx.stdout, report, verbose)
	}

	if runErr != nil {
		if kind := FatalKind(runErr); kind != "" {
			return fmt.Errorf("%s: %w", kind, runErr)
		}
		return runErr
	}
	return nil
}

func printReport(w io.Writer, report *ChangeReport, verbose bool) {
	if report.Partial {
		_, _ = fmt.Fprintf(w, "\nPARTIAL REPORT - run aborted in phase %q\n", report.Phase)
	}

	_, _ = fmt.Fprintln(w, "\nMappings:")
	for _, m := range report.Mappings {
		_, _ = fmt.Fprintf(w, "  %-14s %s -> %s\n", m.Kind, m.Old, m.New)
	}

	_, _ = fmt.Fprintf(w, "\nChanged files: %d\n", report.ChangedFilesCount)
	if verbose {
		for _, file := range report.ChangedFiles {
			_, _ = fmt.Fprintf(w, "  %s\n", file)
		}
	}

	if report.DirectoryMove != nil {
		_, _ = fmt.Fprintf(w, "\nDirectory move:\n  %s\n  -> %s (%d files)\n",
			report.DirectoryMove.OldRoot, report.DirectoryMove.NewRoot, len(report.DirectoryMove.SubPaths))
	}

	if len(report.Warnings) > 0 {
		_, _ = fmt.Fprintf(w, "\nWarnings: %d\n", len(report.Warnings))
		for _, warning := range report.Warnings {
			_, _ = fmt.Fprintf(w, "  %s\n", warning)
		}
	}

	if len(report.FileErrors) > 0 {
		_, _ = fmt.Fprintf(w, "\nFile errors: %d\n", len(report.FileErrors))
		for _, fileError := range report.FileErrors {
			_, _ = fmt.Fprintf(w, "  %s\n", fileError)
		}
	}
}

func validateCommand(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.stderr)
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	registry, err := NewRegistry(cmdCtx.config.Mappings())
	if err != nil {
		return err
	}

	if *jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(registry.Mappings())
	}

	_, _ = fmt.Fprintln(cmdCtx.stdout, "Mapping set is valid. Substitution order:")
	for _, m := range registry.Mappings() {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "  %-14s %s -> %s\n", m.Kind, m.Old, m.New)
	}
	return nil
}

func classifyCommand(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.stderr)
	paths := fs.String("paths", "", "Comma-separated list of paths to classify")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *paths == "" {
		return fmt.Errorf("--paths is required")
	}

	var ordered []string
	result := make(map[string]FileKind)
	for _, path := range strings.Split(*paths, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, dup := result[path]; dup {
			continue
		}
		result[path] = ClassifyPath(path)
		ordered = append(ordered, path)
	}

	if *jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(result)
	}

	for _, path := range ordered {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "  %-40s %s\n", path, result[path])
	}
	return nil
}
