package main

import (
	"time"
)

type submitCmd struct {
	URL      string        `arg:"" help:"URL to scrape."`
	NoWait   bool          `help:"Print the submission instead of waiting for the task to finish."`
	Interval time.Duration `help:"Polling interval while waiting." default:"1.5s"`
}

func (cmd *submitCmd) Run(opts *globalOptions) error {
	client := newClient(opts)
	client.PollInterval = cmd.Interval

	ctx, cancel := commandContext(opts)
	defer cancel()

	sub, err := client.Submit(ctx, cmd.URL)
	if err != nil {
		return err
	}

	// cache hits carry no pipeline to wait on
	if sub.Cached {
		res, err := client.Result(ctx, sub.TaskID)
		if err != nil {
			return err
		}
		return printAsJSON(res)
	}

	if cmd.NoWait {
		return printAsJSON(sub)
	}

	res, err := client.WaitForResult(ctx, sub.TaskID)
	if err != nil {
		return err
	}
	return printAsJSON(res)
}
