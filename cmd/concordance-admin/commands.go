package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/concordance/api/internal/model"
	"github.com/spf13/cobra"
)

// SystemRoleSettings reads and writes the panelistsSystemRole plugin setting
type SystemRoleSettings interface {
	PanelistsSystemRole(ctx context.Context) (string, error)
	SetPanelistsSystemRole(ctx context.Context, roleID string) error
}

// RoleCatalog lists platform roles
type RoleCatalog interface {
	GetByID(ctx context.Context, id string) (*model.Role, error)
	List(ctx context.Context) ([]*model.Role, error)
}

// AccountDeprovisioner deactivates a panelist's platform account
type AccountDeprovisioner interface {
	OnPanelistDeleted(ctx context.Context, userID string) error
}

type adminStores struct {
	settings  SystemRoleSettings
	roles     RoleCatalog
	lifecycle AccountDeprovisioner
	close     func() error
}

type openFunc func(ctx context.Context) (*adminStores, error)

func newRootCommand(open openFunc) *cobra.Command {
	var stores *adminStores

	root := &cobra.Command{
		Use:           programName,
		Short:         "Administer concordance panelist provisioning",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			commonRun()
			s, err := open(cmd.Context())
			if err != nil {
				return err
			}
			stores = s
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if stores != nil && stores.close != nil {
				return stores.close()
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	get := func() *adminStores { return stores }
	root.AddCommand(
		settingsCommand(get),
		rolesCommand(get),
		usersCommand(get),
	)
	return root
}

func settingsCommand(stores func() *adminStores) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or change panelist provisioning settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the system role granted to new panelist accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roleID, err := stores().settings.PanelistsSystemRole(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "panelistsSystemRole: %s\n", displayRole(roleID))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-system-role <roleId|0>",
		Short: "Set the system role granted to new panelist accounts; 0 grants none",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := stores()
			roleID := model.NormalizeSystemRole(args[0])
			if roleID != model.NoSystemRole {
				role, err := s.roles.GetByID(cmd.Context(), roleID)
				if err != nil {
					return err
				}
				if role == nil {
					return fmt.Errorf("role %s does not exist", roleID)
				}
				roleID = role.ID
			}
			if err := s.settings.SetPanelistsSystemRole(cmd.Context(), roleID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "panelistsSystemRole set to %s\n", displayRole(roleID))
			return nil
		},
	})

	return cmd
}

func rolesCommand(stores func() *adminStores) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Inspect platform roles",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List the roles a panelist system role can be chosen from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roles, err := stores().roles.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(roles)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSHORTNAME\tNAME")
			for _, r := range roles {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Shortname, r.Name)
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.AddCommand(list)

	return cmd
}

func usersCommand(stores func() *adminStores) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage panelist platform accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "deprovision <userId>",
		Short: "Deactivate a panelist account and revoke its enrollments and roles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := stores().lifecycle.OnPanelistDeleted(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deprovisioned %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func displayRole(roleID string) string {
	if roleID == model.NoSystemRole {
		return "0 (none)"
	}
	return roleID
}
