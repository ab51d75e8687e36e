package main

import (
	"fmt"
	"io"
	"strconv"

	"socialblog/internal/config"
	"socialblog/internal/database"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type connectFunc func() (*gorm.DB, *config.Config, error)

func newRootCmd(connect connectFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the socialblog database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newUpCmd(connect),
		newAutoCmd(connect),
		newStatusCmd(connect),
		newDownCmd(connect),
	)
	return root
}

func newUpCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := connect()
			if err != nil {
				return err
			}
			m, err := database.NewMigrator(db)
			if err != nil {
				return err
			}
			ran, err := m.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("sql migrations failed: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(ran) == 0 {
				fmt.Fprintln(out, "Schema is up to date")
				return nil
			}
			for _, mig := range ran {
				color.New(color.FgGreen).Fprintf(out, "applied %s\n", mig)
			}
			return nil
		},
	}
}

func newAutoCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "auto",
		Short: "Run GORM AutoMigrate for every model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, cfg, err := connect()
			if err != nil {
				return err
			}
			cfg.DBSchemaMode = database.SchemaModeAuto
			if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
				return fmt.Errorf("auto schema apply failed: %w", err)
			}
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "automigrations applied")
			return nil
		},
	}
}

func newStatusCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, cfg, err := connect()
			if err != nil {
				return err
			}
			m, err := database.NewMigrator(db)
			if err != nil {
				return err
			}
			states, err := m.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("schema status failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if plan, err := database.PlanSchema(cfg); err != nil {
				fmt.Fprintf(out, "mode=%s env=%s: %v\n", cfg.DBSchemaMode, cfg.Env, err)
			} else {
				fmt.Fprintf(out, "mode=%s env=%s run_sql=%t run_auto=%t\n", plan.Mode, cfg.Env, plan.SQL, plan.AutoMigrate)
			}
			renderStates(out, states)
			return nil
		},
	}
}

func newDownCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Revert the most recently applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := connect()
			if err != nil {
				return err
			}
			m, err := database.NewMigrator(db)
			if err != nil {
				return err
			}
			reverted, err := m.Down(cmd.Context())
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			out := cmd.OutOrStdout()
			if reverted == nil {
				fmt.Fprintln(out, "No migrations to revert")
				return nil
			}
			color.New(color.FgYellow).Fprintf(out, "reverted %s\n", reverted)
			return nil
		},
	}
}

func renderStates(w io.Writer, states []database.MigrationState) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Version", "Name", "State", "Applied At"})
	for _, st := range states {
		state, appliedAt := "pending", ""
		if st.Applied {
			state = "applied"
			appliedAt = st.AppliedAt.Format("2006-01-02 15:04:05")
		}
		row := []string{strconv.Itoa(st.Version), st.Name, state, appliedAt}
		if st.Drifted {
			row[2] = "drifted"
			table.Rich(row, []tablewriter.Colors{{}, {}, {tablewriter.FgRedColor, tablewriter.Bold}})
			continue
		}
		table.Append(row)
	}
	table.Render()
}
