package main

import (
	"time"

	"github.com/alecthomas/kong"
)

type globalOptions struct {
	Endpoint string        `help:"The scraper front-end endpoint (scheme://host:port)." default:"http://localhost:8080"`
	Timeout  time.Duration `help:"Total time budget for the command." default:"120s"`
}

var cli struct {
	globalOptions

	Submit submitCmd `cmd:"" help:"Submit a URL for scraping and wait for the result."`
	Status statusCmd `cmd:"" help:"Show the lifecycle state of a task."`
	Result resultCmd `cmd:"" help:"Fetch the result document of a completed task."`
	Tasks  tasksCmd  `cmd:"" help:"List every task the front-end holds."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("pagescout-cli"),
		kong.Description("Command line interface for the pagescout scraping service."),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli.globalOptions)
	ctx.FatalIfErrorf(err)
}
