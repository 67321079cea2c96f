package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/scribe/internal/store"
)

// Admin commands operate on the data directory directly; run them with the
// server stopped or against a copy.

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative operations on the document database",
}

var enableCategoryCmd = &cobra.Command{
	Use:   "enable-category <category>",
	Short: "Provision a category for writes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := s.EnableCategory(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("category %s enabled\n", args[0])
		return nil
	},
}

var setAuthCodeCmd = &cobra.Command{
	Use:   "set-auth-code <scope> <user-id> <auth-code>",
	Short: "Provision a worker auth code (scope is a category, or _admin for claim/release)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := args[0]
		if scope != store.AdminScope {
			if _, err := store.SanitizeCategory(scope); err != nil {
				return err
			}
		}
		s, db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := s.SetWorkerAuthCode(cmd.Context(), scope, args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("auth code set for %s/%s\n", scope, args[1])
		return nil
	},
}

func init() {
	adminCmd.AddCommand(enableCategoryCmd)
	adminCmd.AddCommand(setAuthCodeCmd)
	rootCmd.AddCommand(adminCmd)
}
