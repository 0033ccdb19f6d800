package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"swarmshare/p2p-share/pkg/logger"
	"swarmshare/p2p-share/tracker"
)

var (
	trackerAddr        string
	trackerInteractive bool
)

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Start the tracker (directory service)",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Sugar.Infof("Starting tracker on %s", trackerAddr)

		server := tracker.NewServer(trackerAddr)

		if trackerInteractive {
			go func() {
				if err := server.Start(); err != nil {
					logger.Sugar.Error("Error starting tracker: ", err)
					os.Exit(1)
				}
			}()

			fmt.Println("P2P Share Tracker Interactive Shell")
			fmt.Println("Type 'help' for commands.")

			p := prompt.New(
				func(in string) { trackerExecutor(in, server) },
				trackerCompleter,
				prompt.OptionPrefix("tracker> "),
				prompt.OptionTitle("P2P Share Tracker"),
			)
			p.Run()
		} else {
			if err := server.Start(); err != nil {
				logger.Sugar.Error("Error starting tracker: ", err)
			}
		}
	},
}

func trackerExecutor(in string, server *tracker.Server) {
	in = strings.TrimSpace(in)
	blocks := strings.Fields(in)
	if len(blocks) == 0 {
		return
	}

	switch blocks[0] {
	case "exit", "quit":
		fmt.Println("Stopping tracker...")
		server.Stop()
		os.Exit(0)
	case "status":
		fmt.Println(server.GetStatus())
	case "help":
		fmt.Println("Available commands:")
		fmt.Println("  status       - Show tracker status and registered files")
		fmt.Println("  exit         - Stop tracker and exit")
	default:
		fmt.Println("Unknown command: " + blocks[0])
	}
}

func trackerCompleter(d prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: "status", Description: "Show tracker status and registered files"},
		{Text: "exit", Description: "Exit the tracker"},
		{Text: "help", Description: "Show help"},
	}
	return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
}

func init() {
	rootCmd.AddCommand(trackerCmd)
	trackerCmd.Flags().StringVarP(&trackerAddr, "addr", "a", "0.0.0.0:5000", "Tracker address to listen on")
	trackerCmd.Flags().BoolVarP(&trackerInteractive, "interactive", "i", false, "Start in interactive mode")
}
