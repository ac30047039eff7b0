package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohamedthameursassi/IndoorNavServer/congestion"
	"github.com/mohamedthameursassi/IndoorNavServer/services"
	"github.com/mohamedthameursassi/IndoorNavServer/store"
)

// OpsHandler serves metrics and administrative endpoints on a separate
// listener.
type OpsHandler struct {
	navigation *services.NavigationService
	congestion *services.CongestionService
}

func NewOpsHandler(nav *services.NavigationService, cong *services.CongestionService) *OpsHandler {
	return &OpsHandler{navigation: nav, congestion: cong}
}

func NewOpsRouter(h *OpsHandler) *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func (h *OpsHandler) RegisterRoutes(router *mux.Router) {
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/healthz", h.Healthz).Methods("GET")
	router.HandleFunc("/admin/buildings/{buildingID}/graph/reload", h.ReloadGraph).Methods("POST")
	router.HandleFunc("/admin/congestion", h.Congestion).Methods("GET")
	router.HandleFunc("/admin/congestion/edges/{from}/{to}", h.EdgeCongestion).Methods("GET")
}

func (h *OpsHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *OpsHandler) ReloadGraph(w http.ResponseWriter, r *http.Request) {
	buildingID := mux.Vars(r)["buildingID"]
	version, changed, err := h.navigation.ReloadGraph(r.Context(), buildingID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("ERROR: reload graph %s: %v", buildingID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	log.Printf("Reloaded graph for building %s: version %d, changed %t", buildingID, version, changed)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"building_id": buildingID,
		"version":     version,
		"changed":     changed,
	})
}

func (h *OpsHandler) Congestion(w http.ResponseWriter, r *http.Request) {
	report := h.congestion.Report()
	if report == nil {
		report = []services.LocationReport{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"locations": report,
		"count":     len(report),
	})
}

func (h *OpsHandler) EdgeCongestion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rate, level := h.congestion.EdgeRate(vars["from"], vars["to"])
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"location_id": congestion.LocationKey(vars["from"], vars["to"]),
		"rate":        rate,
		"level":       level,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
