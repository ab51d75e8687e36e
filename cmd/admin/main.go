// Command admin manages administrator accounts.
package main

import (
	"fmt"
	"os"

	"socialblog/internal/config"
	"socialblog/internal/database"
	"socialblog/internal/repository"
	"socialblog/internal/service"

	"github.com/fatih/color"
)

func main() {
	root := newRootCmd(func() (*service.UserService, repository.UserRepository, error) {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		users := repository.NewUserRepository(db)
		return service.NewUserService(users, repository.NewProfileRepository(db), nil), users, nil
	})
	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
