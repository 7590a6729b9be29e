package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-data-sentinel/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a datasentinel.yml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(configPath, force); err != nil {
				return err
			}
			fmt.Printf("✅ Wrote configuration template to %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration file")
	return cmd
}
