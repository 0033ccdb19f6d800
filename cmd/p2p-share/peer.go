package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"swarmshare/p2p-share/peer"
	"swarmshare/p2p-share/pkg/config"
	"swarmshare/p2p-share/pkg/discovery"
	"swarmshare/p2p-share/pkg/logger"
	"swarmshare/p2p-share/pkg/monitor"
	"swarmshare/p2p-share/pkg/netutil"
)

var (
	peerAddr        string
	peerTrackerURL  string
	peerConfigPath  string
	fileToShare     string
	fileToDownload  string
	peerInteractive bool
)

var peerCmd = &cobra.Command{
	Use:   "peer",
	Short: "Start a peer node",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(peerConfigPath)
		if err != nil {
			logger.Sugar.Fatal("Failed to load config: ", err)
		}
		if cmd.Flags().Changed("addr") {
			cfg.ListenAddr = peerAddr
		}
		if cmd.Flags().Changed("tracker") {
			cfg.TrackerURL = peerTrackerURL
		}
		if cfg.TrackerURL == "" {
			cfg.TrackerURL = locateTracker()
		}

		logger.Sugar.Infof("Starting peer on %s, tracker %s", cfg.ListenAddr, cfg.TrackerURL)

		node := peer.NewNode(cfg, netutil.LocalIP())
		if err := node.Start(); err != nil {
			logger.Sugar.Fatal("Error starting peer: ", err)
		}

		go monitor.LogPeriodic(30 * time.Second)

		if fileToShare != "" {
			desc, err := node.Share(fileToShare)
			if err != nil {
				logger.Sugar.Fatal("Failed to share file: ", err)
			}
			fmt.Printf("Sharing %s (hash: %s, %d chunks)\n", desc.Name, desc.Hash, desc.NumChunks)
		}

		if fileToDownload != "" {
			runDownload(node, fileToDownload)
			if !peerInteractive && fileToShare == "" {
				return
			}
		}

		if peerInteractive {
			fmt.Println("P2P Share Peer Interactive Shell")
			fmt.Println("Type 'help' for commands.")

			prompt.New(
				func(in string) { peerExecutor(in, node) },
				peerCompleter,
				prompt.OptionPrefix("peer> "),
				prompt.OptionTitle("P2P Share Peer"),
			).Run()
		} else {
			fmt.Println("Peer is online and serving. Press Ctrl+C to stop.")
			select {}
		}
	},
}

// locateTracker falls back to mDNS when no tracker URL is configured.
func locateTracker() string {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	url, err := discovery.FindTracker(ctx)
	if err != nil {
		logger.Sugar.Fatal("No tracker configured and none found via mDNS: ", err)
	}
	logger.Sugar.Infof("Discovered tracker at %s", url)
	return url
}

func runDownload(node *peer.Node, name string) {
	result, err := node.Download(name)
	if err != nil {
		fmt.Printf("Download failed: %v\n", err)
		return
	}

	switch result.Status {
	case peer.StatusComplete:
		fmt.Printf("Download complete: %s (%d bytes)\n", result.Path, result.Size)
	case peer.StatusIncomplete:
		fmt.Printf("Download incomplete, missing chunks: %v\n", result.MissingChunks)
	case peer.StatusCorruptDiscarded:
		fmt.Println("Download failed integrity check; corrupted file discarded.")
	}
}

func peerExecutor(in string, node *peer.Node) {
	in = strings.TrimSpace(in)
	blocks := strings.Fields(in)
	if len(blocks) == 0 {
		return
	}

	switch blocks[0] {
	case "exit", "quit":
		fmt.Println("Stopping peer...")
		node.Stop()
		os.Exit(0)
	case "status":
		fmt.Println(node.GetStatus())
	case "share":
		if len(blocks) < 2 {
			fmt.Println("Usage: share <file_path>")
			return
		}
		desc, err := node.Share(blocks[1])
		if err != nil {
			fmt.Printf("Error sharing file: %v\n", err)
		} else {
			fmt.Printf("Sharing %s (hash: %s, %d chunks)\n", desc.Name, desc.Hash, desc.NumChunks)
		}
	case "download":
		if len(blocks) < 2 {
			fmt.Println("Usage: download <file_name>")
			return
		}
		runDownload(node, blocks[1])
	case "help":
		fmt.Println("Available commands:")
		fmt.Println("  status                 - Show peer status")
		fmt.Println("  share <path>           - Share and serve a local file")
		fmt.Println("  download <name>        - Download a file by name")
		fmt.Println("  exit                   - Stop peer and exit")
	default:
		fmt.Println("Unknown command: " + blocks[0])
	}
}

func peerCompleter(d prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: "status", Description: "Show peer status"},
		{Text: "share", Description: "Share a file"},
		{Text: "download", Description: "Download a file"},
		{Text: "exit", Description: "Exit the peer"},
		{Text: "help", Description: "Show help"},
	}
	return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
}

func init() {
	rootCmd.AddCommand(peerCmd)
	peerCmd.Flags().StringVarP(&peerAddr, "addr", "a", "0.0.0.0:6000", "Address for the chunk server to listen on")
	peerCmd.Flags().StringVarP(&peerTrackerURL, "tracker", "t", "", "Tracker base URL (default from config, then mDNS)")
	peerCmd.Flags().StringVarP(&peerConfigPath, "config", "c", "", "Path to a YAML config file")
	peerCmd.Flags().StringVarP(&fileToShare, "share", "s", "", "Path to a file to share immediately")
	peerCmd.Flags().StringVarP(&fileToDownload, "download", "d", "", "File name to download immediately")
	peerCmd.Flags().BoolVarP(&peerInteractive, "interactive", "i", false, "Start in interactive mode")
}
