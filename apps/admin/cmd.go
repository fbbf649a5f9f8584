package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lusale/gpms/core/identity"
	"github.com/lusale/gpms/storage/docstore"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db  *sqlx.DB
	dir *docstore.RoleDirectory
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  grantrole -email EMAIL -role admin|advocate - grant a role to a user")
	fmt.Println("  revokerole -email EMAIL                     - revoke a user's role")
	fmt.Println("  migrate [up|down|status|...]                - run database migrations")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	grantRoleCmd := flag.NewFlagSet("grantrole", flag.ExitOnError)
	grantRoleEmail := grantRoleCmd.String("email", "", "The user's email.")
	grantRoleRole := grantRoleCmd.String("role", "", "The role to grant; one of: admin, advocate.")

	revokeRoleCmd := flag.NewFlagSet("revokerole", flag.ExitOnError)
	revokeRoleEmail := revokeRoleCmd.String("email", "", "The user's email.")

	switch args[1] {
	case "grantrole":
		if err := grantRoleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *grantRoleEmail == "" || !isKnownRole(*grantRoleRole) {
			grantRoleCmd.Usage()
			return errHelp
		}
		return cli.grantRole(*grantRoleEmail, *grantRoleRole)
	case "revokerole":
		if err := revokeRoleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *revokeRoleEmail == "" {
			revokeRoleCmd.Usage()
			return errHelp
		}
		return cli.revokeRole(*revokeRoleEmail)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func isKnownRole(role string) bool {
	return role == identity.RoleAdmin || role == identity.RoleAdvocate
}
