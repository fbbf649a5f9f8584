package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/lusale/gpms/core/identity"
	"github.com/lusale/gpms/storage/docstore"
	inmemstore "github.com/lusale/gpms/storage/docstore/inmem"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	return &commandLine{
		db:  &sqlx.DB{},
		dir: docstore.NewRoleDirectory(inmemstore.NewStore()),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "participants", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_grantRole(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"grantrole"}, wantErr: errHelp},
		{name: "email but no role", args: []string{"grantrole", "-email", "jane@test.cd"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"grantrole", "-email", "jane@test.cd", "-role", "boss"}, wantErr: errHelp},
		{name: "grant advocate", args: []string{"grantrole", "-email", "jane@test.cd", "-role", "advocate"}},
		{name: "grant admin overwrites", args: []string{"grantrole", "-email", "Jane@Test.cd", "-role", "admin"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				role, err := cli.dir.GetRole(context.Background(), "jane@test.cd")
				if err != nil {
					t.Fatalf("GetRole() failed, %v", err)
				}
				if role != identity.RoleAdmin && role != identity.RoleAdvocate {
					t.Errorf("GetRole() = %q, want a granted role", role)
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_revokeRole(t *testing.T) {
	cli := setup(t)

	if err := cli.dir.GrantRole(context.Background(), "jane@test.cd", identity.RoleAdvocate); err != nil {
		t.Fatalf("GrantRole() failed, %v", err)
	}

	tests := []cliTest{
		{name: "no args", args: []string{"revokerole"}, wantErr: errHelp},
		{name: "revoke", args: []string{"revokerole", "-email", "Jane@Test.cd "}},
		{name: "unknown user", args: []string{"revokerole", "-email", "jane@test.cd"}, wantErr: identity.ErrNoMapping},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				if _, err := cli.dir.GetRole(context.Background(), "jane@test.cd"); err != identity.ErrNoMapping {
					t.Errorf("GetRole() error = %v, want ErrNoMapping", err)
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
