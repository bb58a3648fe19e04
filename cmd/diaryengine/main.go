package main

import (
	"github.com/alecthomas/kong"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("diaryengine"),
		kong.Description("A server-rendered reader for Wisata travel diaries."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	ctx.FatalIfErrorf(ctx.Run(&Global{Logger: cli.logger}, &cli))
}
