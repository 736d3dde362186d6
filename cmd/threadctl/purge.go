package main

import (
	"fmt"

	"threadline/internal/repository"
	"threadline/internal/service"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:     "purge <thread-id>",
	Short:   "Delete a thread and every reply below it",
	Long:    "Deletes on behalf of the thread's author, so the regular cascade and cache invalidation apply.",
	GroupID: "data",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUintArg(args[0], "thread id")
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		_, rt, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close(ctx)

		threads := repository.NewThreadRepository(rt.DB)
		thread, err := threads.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
			ids, err := threads.DescendantIDs(ctx, []uint{id})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "would delete %d threads: %v\n", len(ids), ids)
			return nil
		}

		svc := service.NewThreadService(threads, repository.NewCommunityRepository(rt.DB), 0)
		removed, err := svc.DeleteThread(ctx, thread.AuthorID, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d threads: %v\n", len(removed), removed)
		return nil
	},
}

func init() {
	purgeCmd.Flags().Bool("dry-run", false, "Only list what would be deleted")
	rootCmd.AddCommand(purgeCmd)
}
