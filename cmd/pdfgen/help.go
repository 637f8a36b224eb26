package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfgen <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Render one template, HTML file, HTML string or Markdown file")
	fmt.Fprintln(w, "  batch      Render every HTML file of a directory")
	fmt.Fprintln(w, "  doctor     Check the project layout and API key setup")
	fmt.Fprintln(w, "  set-key    Store the API key in the env file")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pdfgen help <command>' for details on a specific command.")
}

func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfgen render [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input (choose one, default: the template.html template):")
	fmt.Fprintln(w, "  -t, --template <name>     Template from paths.template_dir")
	fmt.Fprintln(w, "  -f, --file <path>         Any HTML file")
	fmt.Fprintln(w, "      --html <string>       Inline HTML")
	fmt.Fprintln(w, "  -m, --markdown <path>     Markdown file, wrapped in the document style")
	fmt.Fprintln(w, "      --title <s>           Document title for --markdown")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <name>       File name inside paths.output_dir")
	fmt.Fprintln(w)
	printPDFFlags(w)
	printCommonFlags(w)
}

func printBatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfgen batch [flags] [files...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render the named HTML files, or every *.html file of --dir in name order.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -d, --dir <path>          Input directory (default paths.template_dir)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel renders (default batch.workers)")
	fmt.Fprintln(w)
	printPDFFlags(w)
	printCommonFlags(w)
}

func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfgen doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the project layout and API key configuration.")
	fmt.Fprintln(w, "Exits with 1 when errors are found.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Machine-readable output")
	printCommonFlags(w)
}

func printSetKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdfgen set-key [flags] [KEY]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Store the API key in doppio.env_file. Reads KEY from stdin when omitted.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --force               Replace an existing key")
	printCommonFlags(w)
}

func printPDFFlags(w io.Writer) {
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "      --format <s>          A3, A4, A5, A6, Letter, Legal, Tabloid, Ledger")
	fmt.Fprintln(w, "      --wait-until <s>      load, domcontentloaded, networkidle0, networkidle2")
	fmt.Fprintln(w, "      --no-background       Do not print backgrounds")
	fmt.Fprintln(w)
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <path>       Config file")
	fmt.Fprintln(w, "  -v, --verbose             Log diagnostics to stderr")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "batch":
		printBatchUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "set-key":
		printSetKeyUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: pdfgen version")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: pdfgen help [command]")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
