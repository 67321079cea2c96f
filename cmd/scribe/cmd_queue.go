package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/scribe/pkg/client"
)

var (
	queueCategory string
	queueUserID   string
	queueAuthCode string
	queueInstance string
	discoverLimit int
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and mutate the per-category job queue",
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Show the queue snapshot for a category",
	RunE: func(cmd *cobra.Command, args []string) error {
		queue, err := apiClient().Poll(cmd.Context(), queueCategory, workerAuth())
		if err != nil {
			return err
		}
		if outputJSON {
			printJSON(queue)
			return nil
		}
		ids := make([]string, 0, len(queue))
		for id := range queue {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			entry := queue[id]
			state := "unclaimed"
			if entry.Instance != nil {
				state = fmt.Sprintf("claimed by %s", *entry.Instance)
			}
			fmt.Printf("%s\tadded %s\t%s\n", id, entry.Added.Format("2006-01-02 15:04:05"), state)
		}
		fmt.Printf("%d entries\n", len(queue))
		return nil
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run a catalog sweep and enqueue new videos",
	RunE: func(cmd *cobra.Command, args []string) error {
		enqueued, err := apiClient().Discover(cmd.Context(), discoverLimit)
		if err != nil {
			return err
		}
		if outputJSON {
			printJSON(enqueued)
			return nil
		}
		fmt.Printf("enqueued %d: %s\n", len(enqueued), strings.Join(enqueued, ", "))
		return nil
	},
}

var claimCmd = &cobra.Command{
	Use:   "claim <video-id>...",
	Short: "Claim queue entries for a worker instance",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claimed, err := apiClient().Claim(cmd.Context(), queueCategory, args, queueInstance, workerAuth())
		if err != nil {
			return err
		}
		if outputJSON {
			printJSON(claimed)
			return nil
		}
		fmt.Printf("claimed %d: %s\n", len(claimed), strings.Join(claimed, ", "))
		return nil
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release <video-id>...",
	Short: "Remove completed entries from the queue",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient().Release(cmd.Context(), queueCategory, args, workerAuth()); err != nil {
			return err
		}
		fmt.Printf("released %d entries\n", len(args))
		return nil
	},
}

func workerAuth() client.WorkerAuth {
	return client.WorkerAuth{UserID: queueUserID, AuthCode: queueAuthCode}
}

func init() {
	for _, c := range []*cobra.Command{pollCmd, claimCmd, releaseCmd} {
		c.Flags().StringVar(&queueCategory, "category", "", "Category name")
		c.Flags().StringVar(&queueUserID, "user-id", "", "Worker user id")
		c.Flags().StringVar(&queueAuthCode, "auth-code", "", "Worker auth code")
		c.MarkFlagRequired("category")
	}
	claimCmd.Flags().StringVar(&queueInstance, "instance", "", "Worker instance id")
	claimCmd.MarkFlagRequired("instance")
	discoverCmd.Flags().IntVar(&discoverLimit, "limit", 0, "Cap on newly enqueued videos (0 = unbounded)")

	queueCmd.AddCommand(pollCmd)
	queueCmd.AddCommand(discoverCmd)
	queueCmd.AddCommand(claimCmd)
	queueCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(queueCmd)
}
