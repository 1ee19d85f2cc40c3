package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, closeDB, err := openDB(cmd, true)
		if err != nil {
			return err
		}
		closeDB()
		return nil
	},
}
