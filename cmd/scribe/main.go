package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/scribe/pkg/client"
)

var (
	serverURL  string
	token      string
	outputJSON bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "scribe — operator CLI for the transcription coordinator",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envDefault("SCRIBE_SERVER", "http://localhost:8080"), "Coordinator server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("SCRIBE_TOKEN"), "Bearer token for audited endpoints")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Print raw JSON output")
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func apiClient() *client.Client {
	c := client.New(serverURL)
	c.Token = token
	return c
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(data))
}
