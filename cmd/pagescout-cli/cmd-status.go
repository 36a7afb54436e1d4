package main

type statusCmd struct {
	TaskID string `arg:"" help:"Task id returned on submission."`
}

func (cmd *statusCmd) Run(opts *globalOptions) error {
	ctx, cancel := commandContext(opts)
	defer cancel()

	st, err := newClient(opts).Status(ctx, cmd.TaskID)
	if err != nil {
		return err
	}
	return printAsJSON(st)
}
