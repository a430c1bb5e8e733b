package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/notification"
	notificationPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/notification/postgres"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send batch notifications",
}

var notifyMissingEmployeeIDCmd = &cobra.Command{
	Use:   "missing-employee-id",
	Short: "Remind every account without an employee code",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, lg, err := setup()
		if err != nil {
			return err
		}
		db, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		gdb, err := initGorm(db)
		if err != nil {
			return err
		}

		svc := notification.NewService(notificationPostgres.NewNotificationRepository(gdb), lg)
		n, err := svc.NotifyMissingEmployeeCode(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Notified %d account(s)\n", n)
		return nil
	},
}

func init() {
	notifyCmd.AddCommand(notifyMissingEmployeeIDCmd)
}
