// Command sprotodump loads a sproto schema bundle from a file and prints
// it in text, JSON, or YAML form.
package main

import (
	"flag"
	"fmt"
	"os"

	gctx "github.com/gostdlib/base/context"

	sproto "github.com/bearlytools/sproto"
)

func main() {
	format := flag.String("format", "text", "output format: text, json, or yaml")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sprotodump [-format text|json|yaml] <schema-file>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *format); err != nil {
		fmt.Fprintln(os.Stderr, "sprotodump:", err)
		os.Exit(1)
	}
}

func run(path, format string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ctx := gctx.Background()
	s, err := sproto.Create(ctx, blob)
	if err != nil {
		return err
	}
	defer s.Release(ctx)

	switch format {
	case "text":
		return sproto.Dump(os.Stdout, s)
	case "json":
		return sproto.DumpJSON(os.Stdout, s)
	case "yaml":
		return sproto.DumpYAML(os.Stdout, s)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
