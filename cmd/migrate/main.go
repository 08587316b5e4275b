// migrate applies the embedded schema migrations.
//
//	migrate [up|down|version] [--dsn postgres://...]
//
// The DSN defaults to DATABASE_URL from .env or the environment.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/klimov-rv/user-dashboard-backend/internal/config"
	"github.com/klimov-rv/user-dashboard-backend/internal/db/migrate"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	dsn := flags.String("dsn", "", "Postgres connection string (default: DATABASE_URL)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		*dsn = config.DatabaseURL()
	}

	command := "up"
	if flags.NArg() > 0 {
		command = flags.Arg(0)
	}

	if command == "version" {
		version, dirty, err := migrate.Version(*dsn)
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		return nil
	}

	direction, err := migrate.ParseDirection(command)
	if err != nil {
		return err
	}
	return migrate.Run(*dsn, direction)
}
