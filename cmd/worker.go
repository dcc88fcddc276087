package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run only the background publisher loop",
	Long: `Runs the due-cast publisher without the REST API. Pair with a rest
deployment that sets PUBLISHER_DISABLED=true.`,
	Run: workerServer,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func workerServer(_ *cobra.Command, _ []string) {
	publishWorker.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logrus.Info("[WORKER] Reception of termination signal, shutting down gracefully...")
	publishWorker.Stop()
	StopApp()
}
