package main

type resultCmd struct {
	TaskID string `arg:"" help:"Task id returned on submission."`
	Wait   bool   `help:"Poll until the task finishes instead of failing while it runs."`
}

func (cmd *resultCmd) Run(opts *globalOptions) error {
	ctx, cancel := commandContext(opts)
	defer cancel()

	client := newClient(opts)

	if cmd.Wait {
		res, err := client.WaitForResult(ctx, cmd.TaskID)
		if err != nil {
			return err
		}
		return printAsJSON(res)
	}

	res, err := client.Result(ctx, cmd.TaskID)
	if err != nil {
		return err
	}
	return printAsJSON(res)
}
