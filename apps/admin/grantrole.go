package main

import (
	"context"

	"github.com/lusale/gpms/core"
)

// grantRole updates or creates the user's role mapping.
func (cli *commandLine) grantRole(email, role string) error {
	email = core.CleanString(email, true /* lower */)
	return cli.dir.GrantRole(context.Background(), email, role)
}
