package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the authorized account and its quota",
	RunE: func(cmd *cobra.Command, args []string) error {
		api := newAPI()
		account, err := api.GetAccountRequest().Send(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Account: %s (%s)\n", account.Name, account.ID)
		fmt.Printf("Plan:    %s\n", account.Plan)
		fmt.Printf("Quota:   %d of %d documents used this month\n", account.Quota.Used, account.Quota.MonthlyLimit)
		return nil
	},
}
