// Command sprotopack applies sproto's 0-pack transform to a file, or
// reverses it with -d.
package main

import (
	"flag"
	"fmt"
	"os"

	gctx "github.com/gostdlib/base/context"

	"github.com/bearlytools/sproto/pack"
)

func main() {
	decode := flag.Bool("d", false, "unpack instead of pack")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sprotopack [-d] <file>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *decode); err != nil {
		fmt.Fprintln(os.Stderr, "sprotopack:", err)
		os.Exit(1)
	}
}

func run(path string, decode bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ctx := gctx.Background()

	var out []byte
	if decode {
		n, err := pack.Unpack(ctx, src, nil)
		if err != nil {
			return err
		}
		out = make([]byte, n)
		if _, err := pack.Unpack(ctx, src, out); err != nil {
			return err
		}
	} else {
		n := pack.Pack(ctx, src, nil)
		out = make([]byte, n)
		pack.Pack(ctx, src, out)
	}

	_, err = os.Stdout.Write(out)
	return err
}
