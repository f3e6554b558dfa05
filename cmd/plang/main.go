// plang is a maintenance tool for the plang engine: it renders problem
// reports, lists the standard natives and shows the effective configuration.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Troppydash/plang-interpreter-sub000/config"
	"github.com/Troppydash/plang-interpreter-sub000/report"
	"github.com/Troppydash/plang-interpreter-sub000/vm"
)

func main() {
	dir := flag.String("C", ".", "Directory to search for plang.toml")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: plang [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  report <file>   Render a CBOR problem report\n")
		fmt.Fprintf(os.Stderr, "  natives         List the standard natives\n")
		fmt.Fprintf(os.Stderr, "  config          Show the effective configuration\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FindAndLoad(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.ConfigureLogging()

	switch args[0] {
	case "report":
		if len(args) != 2 {
			fmt.Fprintf(os.Stderr, "Usage: plang report <file>\n")
			os.Exit(2)
		}
		if err := renderReport(args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "natives":
		for _, name := range vm.StandardNatives().Names() {
			fmt.Println(name)
		}
	case "config":
		opts := cfg.EngineOptions()
		fmt.Printf("config dir:   %s\n", cfg.Dir)
		fmt.Printf("root name:    %s\n", opts.RootName)
		fmt.Printf("trace:        %v\n", opts.Trace)
		fmt.Printf("dump program: %v\n", opts.DumpProgram)
		fmt.Printf("call depth:   %d\n", opts.MaxCallDepth)
		fmt.Printf("base dir:     %s\n", cfg.BaseDirPath())
		fmt.Printf("verbosity:    %d\n", cfg.Log.Verbosity)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
}

func renderReport(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	r, err := report.Unmarshal(data)
	if err != nil {
		return err
	}
	fmt.Printf("run %s (%s)\n", r.RunID, r.Stage)
	fmt.Print(report.Render(r))
	return nil
}
