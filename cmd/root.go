package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/carolhungwt/physio-doctor-platform/cmd/http"
	systemcmd "github.com/carolhungwt/physio-doctor-platform/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "pdp",
	Short: "Referral marketplace backend connecting doctors, physiotherapists and patients.",
	Long: `pdp runs the physio-doctor platform API. Doctors issue physiotherapy
referrals to patients, creating the patient account on the fly when needed,
and physiotherapists receive the referred work.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
