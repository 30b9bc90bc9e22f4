package server

import (
	"net/http"
	"strings"
)

func SetupRoutes(etlHandler *ETLService) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", etlHandler.HealthCheck)

	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		etlHandler.SubmitJob(w, r)
	})

	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/status") {
			etlHandler.GetJobStatus(w, r)
			return
		}
		etlHandler.GetJobDetails(w, r)
	})

	return mux
}
