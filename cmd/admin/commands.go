package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"socialblog/internal/models"
	"socialblog/internal/repository"
	"socialblog/internal/service"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type connectFunc func() (*service.UserService, repository.UserRepository, error)

func newRootCmd(connect connectFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Manage socialblog administrators",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newSetAdminCmd(connect, "promote", "Grant admin rights to a user", true),
		newSetAdminCmd(connect, "demote", "Revoke admin rights from a user", false),
		newListAdminsCmd(connect),
		newListUsersCmd(connect),
	)
	return root
}

func newSetAdminCmd(connect connectFunc, use, short string, admin bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user id or username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, users, err := connect()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			user, err := resolveUser(ctx, users, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if user.IsAdmin == admin {
				state := "already an admin"
				if !admin {
					state = "not an admin"
				}
				fmt.Fprintf(out, "User %s (ID: %d) is %s\n", user.Username, user.ID, state)
				return nil
			}
			if err := svc.SetAdmin(ctx, user.ID, admin); err != nil {
				return fmt.Errorf("update user %d: %w", user.ID, err)
			}

			verb := "promoted"
			if !admin {
				verb = "demoted"
			}
			color.New(color.FgGreen).Fprintf(out, "✅ Successfully %s %s (ID: %d)\n", verb, user.Username, user.ID)
			return nil
		},
	}
}

func newListAdminsCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list-admins",
		Short: "List all admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := connect()
			if err != nil {
				return err
			}
			admins, err := svc.ListAdmins(cmd.Context())
			if err != nil {
				return err
			}
			if len(admins) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No admins found in the system")
				return nil
			}
			renderUsers(cmd.OutOrStdout(), admins)
			return nil
		},
	}
}

func newListUsersCmd(connect connectFunc) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list-users",
		Short: "List users by ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := connect()
			if err != nil {
				return err
			}
			users, err := svc.ListUsers(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			renderUsers(cmd.OutOrStdout(), users)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum users to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Users to skip")
	return cmd
}

func resolveUser(ctx context.Context, users repository.UserRepository, ref string) (*models.User, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return users.GetByID(ctx, uint(id))
	}
	return users.GetByUsername(ctx, ref)
}

func renderUsers(w io.Writer, users []models.User) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"ID", "Username", "Email", "Admin", "Joined"})
	for _, u := range users {
		row := []string{
			strconv.FormatUint(uint64(u.ID), 10),
			u.Username,
			u.Email,
			strconv.FormatBool(u.IsAdmin),
			u.CreatedAt.Format("2006-01-02"),
		}
		if u.IsAdmin {
			table.Rich(row, []tablewriter.Colors{{}, {tablewriter.FgGreenColor, tablewriter.Bold}})
			continue
		}
		table.Append(row)
	}
	table.Render()
}
