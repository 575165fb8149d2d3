package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/06chaynes/okta-jwt-verifier/cmd/okta-jwt/cli"
	"github.com/06chaynes/okta-jwt-verifier/internal/version"
	"github.com/06chaynes/okta-jwt-verifier/x/ctl"
)

type app struct {
	cli.Cli

	Verify cli.VerifyCmd `cmd:"" help:"Verify a token against the issuer's published keys"`
	Keys   cli.KeysCmd   `cmd:"" help:"Fetch and print the issuer's key set"`
}

func main() {
	realMain(os.Args, os.Stdout, os.Stderr, os.Exit)
}

func realMain(args []string, out io.Writer, errout io.Writer, exit func(int)) {
	cl := app{
		Cli: cli.Cli{},
	}
	cl.Cli.WithErrWriter(errout).
		WithWriter(out)

	parser, err := kong.New(&cl,
		kong.Name("okta-jwt"),
		kong.Description("CLI tool to verify Okta issued JWTs"),
		kong.Writers(out, errout),
		kong.Exit(exit),
		ctl.BoolPtrMapper,
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version.Current().String(),
		})
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args[1:])
	parser.FatalIfErrorf(err)

	if ctx != nil {
		if cl.Debug {
			// in DEBUG mode print command line
			_, _ = fmt.Fprintf(ctx.Stdout, "#\n# %s\n#\n", strings.Join(args, " "))
		}
		err = ctx.Run(&cl.Cli)
		ctx.FatalIfErrorf(err)
	}
}
