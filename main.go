// Package main provides the meetscribe server entry point.
// meetscribe ingests meeting audio, tracks it through the analysis pipeline
// and serves the recording/job API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetscribe/cmd"
	"github.com/otherjamesbrown/meetscribe/pkg/buildinfo"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:   "meetscribe",
		Short: "Meeting audio ingestion and pipeline tracking server",
		Long: `meetscribe ingests audio recordings, groups them into meetings and
tracks them through the diarization, identification and transcription
pipeline run by the external analysis worker.`,
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: environment variables only)")

	root.AddCommand(
		cmd.NewServeCommand(&cfgFile),
		cmd.NewDBCommand(&cfgFile),
		cmd.NewHealthCommand(&cfgFile),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
