package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

type tasksCmd struct {
	JSON bool `help:"Print the raw JSON listing instead of a table."`
}

func (cmd *tasksCmd) Run(opts *globalOptions) error {
	ctx, cancel := commandContext(opts)
	defer cancel()

	list, err := newClient(opts).Tasks(ctx)
	if err != nil {
		return err
	}

	if cmd.JSON {
		return printAsJSON(list)
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Header("TASK ID", "STATUS", "AGE", "URL")
	for _, tk := range list.Tasks {
		if err := table.Append([]string{tk.TaskID, tk.Status, age(tk.CreatedAt), tk.URL}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("%s tasks\n", humanize.Comma(int64(len(list.Tasks))))
	return nil
}

func age(createdAt string) string {
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return createdAt
	}
	return fmt.Sprint(time.Since(created).Round(time.Second), " ago")
}
