package main

import (
	"fmt"
	"net"

	cardgaphttp "github.com/fwojciec/cardgap/http"
)

// Run executes the serve command. It blocks until the context is done.
func (c *ServeCmd) Run(deps *Dependencies) error {
	addr := c.Addr
	if addr == "" {
		addr = deps.Config.Addr
	}

	server := cardgaphttp.NewServer(deps.Reports,
		cardgaphttp.WithTags(deps.Config.Tags),
		cardgaphttp.WithTopK(deps.Config.TopK),
		cardgaphttp.WithLogger(deps.Logger),
	)

	err := server.ListenAndServe(deps.Ctx, addr, func(a net.Addr) {
		fmt.Fprintf(deps.Stdout, "Serving dashboard on http://%s\n", a)
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}
