package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

// healthCheckTimeout bounds the /health request made by status.
const healthCheckTimeout = 2 * time.Second

// serverStatus is what status reports, as text or JSON.
type serverStatus struct {
	Running    bool   `json:"running"`
	PID        int    `json:"pid,omitempty"`
	Healthy    bool   `json:"healthy"`
	HealthURL  string `json:"health_url,omitempty"`
	HTTPStatus int    `json:"http_status,omitempty"`
	LogFile    string `json:"log_file"`
	Note       string `json:"note,omitempty"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check if the honeypot server is running",
		Long:  "Report whether a background server is running and whether its /health endpoint answers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := checkServer()
			if jsonOutput {
				return writeJSONTo(cmd.OutOrStdout(), st)
			}

			out := cmd.OutOrStdout()
			switch {
			case !st.Running:
				fmt.Fprintf(out, "Server is not running (%s).\n", st.Note)
			case !st.Healthy:
				fmt.Fprintf(out, "Server process is running (PID %d) but %s.\n", st.PID, st.Note)
				fmt.Fprintf(out, "  Logs: %s\n", st.LogFile)
			default:
				fmt.Fprintf(out, "Server is running (PID %d)\n", st.PID)
				fmt.Fprintf(out, "  Health:  %s (%d)\n", st.HealthURL, st.HTTPStatus)
				fmt.Fprintf(out, "  Logs:    %s\n", st.LogFile)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// checkServer checks the PID file, then asks the server's /health
// endpoint on the configured host and port.
func checkServer() serverStatus {
	st := serverStatus{LogFile: logFilePath()}

	pid, err := readPID()
	if err != nil {
		st.Note = "no PID file found"
		return st
	}
	if !isProcessRunning(pid) {
		removePID()
		st.Note = "stale PID file removed"
		return st
	}
	st.Running, st.PID = true, pid

	settings, err := loadSettings()
	if err != nil {
		st.Note = "the configuration could not be loaded: " + err.Error()
		return st
	}
	host := settings.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	st.HealthURL = fmt.Sprintf("http://%s:%d/health", host, settings.Server.Port)

	client := &http.Client{Timeout: healthCheckTimeout}
	resp, err := client.Get(st.HealthURL)
	if err != nil {
		st.Note = "it is not responding to HTTP"
		return st
	}
	defer resp.Body.Close()
	st.HTTPStatus = resp.StatusCode

	var health model.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil || health.Status != model.StatusSuccess {
		st.Note = fmt.Sprintf("/health answered %d without a success status", resp.StatusCode)
		return st
	}
	st.Healthy = true
	return st
}
