package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Craigmindset/prevetta/internal/pipeline"
	"github.com/Craigmindset/prevetta/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the vetting HTTP API",
	Long: `Serve exposes the vetting engine over HTTP:

  POST /api/analyze     vet script content ({content, type})
  POST /api/moderate    vet one uploaded file (multipart)
  POST /api/transcribe  transcribe one audio upload (multipart)
  POST /api/batch       vet uploaded files with an SSE progress stream
  GET  /healthz         liveness probe
  GET  /metrics         Prometheus metrics

Example:
  prevetta serve --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if err := requireAPIKey(cfg); err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	p := pipeline.New(cfg)
	srv := server.New(p, cfg)

	fmt.Fprintf(os.Stderr, "Prevetta API listening on %s\n", cfg.Server.Addr)
	return srv.Run()
}
