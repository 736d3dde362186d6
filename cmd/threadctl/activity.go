package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"threadline/internal/repository"
	"threadline/internal/service"

	"github.com/spf13/cobra"
)

var activityCmd = &cobra.Command{
	Use:     "activity <user-id>",
	Short:   "List replies other users left on a user's threads",
	GroupID: "data",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUintArg(args[0], "user id")
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		_, rt, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close(ctx)

		items := service.NewActivityResolver(repository.NewThreadRepository(rt.DB)).Activity(ctx, userID)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(items)
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No activity.")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "REPLY\tON\tFROM\tWHEN\tTEXT")
		for _, it := range items {
			fmt.Fprintf(tw, "%d\t%d\t@%s\t%s\t%s\n",
				it.ReplyID, it.ParentID, it.Author.Username, it.CreatedAt.Format("2006-01-02 15:04"), it.Text)
		}
		return tw.Flush()
	},
}

func init() {
	activityCmd.Flags().Bool("json", false, "Print JSON")
	rootCmd.AddCommand(activityCmd)
}
