// seed registers development users from a YAML file. Users whose email is
// already registered are skipped, so it is safe to run repeatedly.
//
//	seed [--file cmd/seed/users.example.yaml]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/klimov-rv/user-dashboard-backend/internal/config"
	"github.com/klimov-rv/user-dashboard-backend/internal/identity/service"
	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
	"github.com/klimov-rv/user-dashboard-backend/internal/security"
	"github.com/klimov-rv/user-dashboard-backend/internal/store"
)

// seedUser is one entry of the seed file.
type seedUser struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type seedFile struct {
	Users []seedUser `yaml:"users"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	path := flags.StringP("file", "f", "cmd/seed/users.example.yaml", "YAML file with a users list")
	if err := flags.Parse(args); err != nil {
		return err
	}

	users, err := readSeedFile(*path)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)
	stores, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	// Registration needs neither tokens nor the session guard.
	auth := service.NewAuthService(stores.Users, security.NewHasher(cfg.BcryptCost), nil, nil, logger)
	created, skipped, err := seed(context.Background(), auth, users)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d users, %d already present\n", created, skipped)
	return nil
}

func readSeedFile(path string) ([]seedUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return f.Users, nil
}

// registrar is the part of the auth service seeding uses.
type registrar interface {
	Register(ctx context.Context, email, password, name string) (string, error)
}

func seed(ctx context.Context, auth registrar, users []seedUser) (created, skipped int, err error) {
	for _, u := range users {
		if _, err := auth.Register(ctx, u.Email, u.Password, u.Name); err != nil {
			if errors.Is(err, service.ErrEmailAlreadyRegistered) {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("register %s: %w", u.Email, err)
		}
		created++
	}
	return created, skipped, nil
}
