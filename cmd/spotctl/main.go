// spotctl es la CLI de administración de SPOT. Habla con la API del backend
// usando un id_token de supervisor (SPOT_TOKEN) contra SPOT_API_URL.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "spotctl",
		Short:         "Administración de SPOT desde la terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("api", envOr("SPOT_API_URL", "http://localhost:8080"),
		"URL base de la API")
	root.PersistentFlags().String("token", os.Getenv("SPOT_TOKEN"),
		"id_token de supervisor (default: env SPOT_TOKEN)")

	root.AddCommand(
		newInviteCmd(),
		newUsersCmd(),
		newHealthCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
