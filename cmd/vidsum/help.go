package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vidsum <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Run the web front end")
	fmt.Fprintln(w, "  submit     Summarize one video into a PDF")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  doctor     Check system configuration")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'vidsum help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --env-file <path>     Dotenv file (default ./.env when present)")
	fmt.Fprintln(w, "      --log-level <s>       debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      text, json")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
}

func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vidsum serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve the summarizer over HTTP. Each browser session gets its own")
	fmt.Fprintln(w, "state and document; sessions share one Chrome pool.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <addr>         Listen address (default :8080)")
	fmt.Fprintln(w, "  -w, --workers <n>         Chrome instances (0 = auto)")
	fmt.Fprintln(w, "      --max-sessions <n>    Live sessions kept before eviction")
	fmt.Fprintln(w, "  -t, --timeout <d>         Service request timeout (e.g. 10m)")
	fmt.Fprintln(w)
	printCommonUsage(w)
	fmt.Fprintln(w)
	printEnvUsage(w)
}

func printSubmitUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vidsum submit (--link <url> | --file <path>) [flags]")
	fmt.Fprintln(w, "       vidsum submit <url> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summarize one video and write the summary as PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -l, --link <url>          Link to a hosted video")
	fmt.Fprintln(w, "  -f, --file <path>         Video file to upload")
	fmt.Fprintln(w, "  -o, --output <path>       PDF output path (default summary.pdf)")
	fmt.Fprintln(w, "      --markdown <path>     Also write the summary as Markdown")
	fmt.Fprintln(w, "  -t, --timeout <d>         Service request timeout (e.g. 10m)")
	fmt.Fprintln(w)
	printCommonUsage(w)
	fmt.Fprintln(w)
	printEnvUsage(w)
}

func printEnvUsage(w io.Writer) {
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  VIDSUM_FILE_ENDPOINT      Upload endpoint (or VITE_N8N_UPLOAD_WEBHOOK)")
	fmt.Fprintln(w, "  VIDSUM_LINK_ENDPOINT      Link endpoint (or VITE_N8N_YOUTUBE_WEBHOOK)")
	fmt.Fprintln(w, "  VIDSUM_CONFIG             Config file name or path")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN           Chrome binary to use")
	fmt.Fprintln(w, "  ROD_NO_SANDBOX=1          Disable Chrome sandbox (containers)")
}

// runHelp prints help for a specific command.
func runHelp(args []string, w io.Writer) {
	if len(args) == 0 {
		printUsage(w)
		return
	}

	switch args[0] {
	case "serve":
		printServeUsage(w)
	case "submit":
		printSubmitUsage(w)
	case "config":
		fmt.Fprintln(w, "Usage: vidsum config [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Print the configuration after files, .env and environment are applied.")
		fmt.Fprintln(w)
		printCommonUsage(w)
	case "doctor":
		fmt.Fprintln(w, "Usage: vidsum doctor [--json] [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Check Chrome, endpoints and the environment.")
	case "version":
		fmt.Fprintln(w, "Usage: vidsum version")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Show version information.")
	case "help":
		fmt.Fprintln(w, "Usage: vidsum help [command]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Show help for a command.")
	default:
		fmt.Fprintf(w, "Unknown command: %s\n\n", args[0])
		printUsage(w)
	}
}
