package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func newInviteCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "invite <email>",
		Short: "Invita (o re-invita) a un usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			var out map[string]any
			body := map[string]string{"email": args[0], "role": role}
			if err := c.do(http.MethodPost, "/auth/invite", body, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "Agent", "rol del invitado (Agent | Supervisor)")
	return cmd
}

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administra usuarios invitados",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Lista los usuarios invitados",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			var out []map[string]any
			if err := c.do(http.MethodGet, "/auth/users", nil, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Cambia el rol de un usuario",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			var out map[string]any
			path := "/auth/users/" + url.PathEscape(args[0]) + "/role"
			if err := c.do(http.MethodPatch, path, map[string]string{"role": args[1]}, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-status <email> <status>",
		Short: "Cambia el estado de un usuario (pending | active | revoked)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			var out map[string]any
			path := "/auth/users/" + url.PathEscape(args[0]) + "/status"
			if err := c.do(http.MethodPatch, path, map[string]string{"status": args[1]}, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	})

	return cmd
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Chequea el estado del backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			base, _ := cmd.Flags().GetString("api")
			resp, err := http.Get(base + "/api/database/health")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			fmt.Println("status:", resp.Status)
			return nil
		},
	}
}
