package main

import (
	"context"

	"github.com/lusale/gpms/core"
)

func (cli *commandLine) revokeRole(email string) error {
	email = core.CleanString(email, true /* lower */)
	return cli.dir.RevokeRole(context.Background(), email)
}
