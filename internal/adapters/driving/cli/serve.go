package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and index files dropped into it",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "listen address")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveFunc == nil {
		return errors.New("server not configured")
	}

	cmd.Printf("Listening on %s\n", serveAddr)
	return serveFunc(serveAddr)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchFunc == nil {
		return errors.New("watcher not configured")
	}

	cmd.Printf("Watching %s\n", args[0])
	return watchFunc(args[0])
}
