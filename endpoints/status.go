package endpoints

import (
	"net/http"

	"github.com/verbano/lingua-service/health"
	"github.com/verbano/lingua-service/system"
)

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Gateway       string  `json:"gateway"`
	Store         string  `json:"store"`
	Transcriber   string  `json:"transcriber"`
	AutoPlay      bool    `json:"auto_play"`
}

// Status reports collaborator health and host resource usage.
func (a *API) Status(w http.ResponseWriter, r *http.Request) {
	cpuUsage, _ := system.CPUPercent()
	memUsage, _ := system.MemoryPercent()

	writeJSON(w, http.StatusOK, StatusResponse{
		CPUPercent:    cpuUsage,
		MemoryPercent: memUsage,
		Gateway:       health.GetGatewayStatus(a.GatewayBaseURL),
		Store:         health.GetStoreStatus(a.Store),
		Transcriber:   health.GetTranscriberStatus(a.Transcriber),
		AutoPlay:      a.Settings.AutoPlay(),
	})
}
