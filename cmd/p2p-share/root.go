package main

import (
	"os"

	"github.com/spf13/cobra"

	"swarmshare/p2p-share/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "p2p-share",
	Short: "P2P chunked file sharing",
	Long:  `Distributes files across a swarm of peers in fixed-size chunks, coordinated by a lightweight HTTP tracker.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Sugar.Error(err)
		os.Exit(1)
	}
}
