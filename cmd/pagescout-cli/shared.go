package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pagescout/pagescout/pkg/httpclient"
)

func newClient(opts *globalOptions) *httpclient.Client {
	return httpclient.New(strings.TrimSuffix(opts.Endpoint, "/"))
}

func commandContext(opts *globalOptions) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opts.Timeout)
}

func printAsJSON(value interface{}) error {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))

	return nil
}
