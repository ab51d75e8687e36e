// Command migrate applies, inspects and rolls back schema changes.
package main

import (
	"fmt"
	"os"

	"socialblog/internal/config"
	"socialblog/internal/database"

	"github.com/fatih/color"
	"gorm.io/gorm"
)

func main() {
	root := newRootCmd(func() (*gorm.DB, *config.Config, error) {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		return db, cfg, nil
	})
	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
