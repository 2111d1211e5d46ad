// Package status serves the drive loop state over HTTP and lets a client arm, disarm or calibrate it.
package status

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/calvinmclean/rcdrive"
	"github.com/calvinmclean/rcdrive/commands"
	"github.com/calvinmclean/rcdrive/config"

	"github.com/calvinmclean/babyapi"
	"github.com/gorilla/mux"
)

// Status is the JSON body of GET /status
type Status struct {
	Version       string  `json:"version"`
	Armed         bool    `json:"armed"`
	SteeringPulse int32   `json:"steering_pulse_us"`
	ThrottlePulse int32   `json:"throttle_pulse_us"`
	Steering      float32 `json:"steering"`
	Throttle      float32 `json:"throttle"`
	Left          float32 `json:"left"`
	Right         float32 `json:"right"`
}

func newStatus(t rcdrive.Telemetry) Status {
	return Status{
		Version:       rcdrive.Version,
		Armed:         t.Armed,
		SteeringPulse: int32(t.SteeringPulse),
		ThrottlePulse: int32(t.ThrottlePulse),
		Steering:      t.Steering,
		Throttle:      t.Throttle.Value(),
		Left:          t.Left.Value(),
		Right:         t.Right.Value(),
	}
}

type server struct {
	c            commands.Controller
	calibrations *babyapi.API[*Calibration]
}

// NewRouter creates the routes:
//
//	GET  /status
//	POST /arm
//	POST /disarm
//	POST /calibration/{steering|throttle}/{1-3}
//	GET  /calibrations
//	GET  /calibrations/{steering|throttle}
//	PUT  /calibrations/{steering|throttle}
//
// cals are the calibrations c was started with
func NewRouter(c commands.Controller, cals config.Calibrations) (*mux.Router, error) {
	calibrations, err := newCalibrationAPI(c, cals)
	if err != nil {
		return nil, err
	}
	calibrationRouter, err := calibrations.Router()
	if err != nil {
		return nil, fmt.Errorf("error creating calibration routes: %w", err)
	}

	s := server{c, calibrations}

	router := mux.NewRouter()
	router.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)
	router.HandleFunc("/arm", s.arm).Methods(http.MethodPost)
	router.HandleFunc("/disarm", s.disarm).Methods(http.MethodPost)
	router.HandleFunc("/calibration/{channel:steering|throttle}/{preset:[1-3]}", s.setCalibration).Methods(http.MethodPost)
	router.PathPrefix("/calibrations").Handler(calibrationRouter)

	return router, nil
}

func (s server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, s.c.Snapshot())
}

func (s server) arm(w http.ResponseWriter, r *http.Request) {
	log.Println("arm from", r.RemoteAddr)
	s.c.Arm()
	w.WriteHeader(http.StatusNoContent)
}

func (s server) disarm(w http.ResponseWriter, r *http.Request) {
	log.Println("disarm from", r.RemoteAddr)
	s.c.Disarm()
	w.WriteHeader(http.StatusNoContent)
}

func (s server) setCalibration(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	ch := rcdrive.ParseChannel(strings.ToUpper(vars["channel"])[0])
	n, _ := strconv.Atoi(vars["preset"])
	cal, ok := rcdrive.Preset(n)
	if !ok {
		http.Error(w, "invalid preset", http.StatusBadRequest)
		return
	}

	err := s.c.SetCalibration(ch, cal)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	err = s.calibrations.Storage.Set(r.Context(), newCalibration(ch, cal))
	if err != nil {
		log.Println("error storing calibration:", err)
	}

	log.Println("calibration", ch, cal, "from", r.RemoteAddr)
	w.WriteHeader(http.StatusNoContent)
}

func writeStatus(w http.ResponseWriter, t rcdrive.Telemetry) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(newStatus(t))
	if err != nil {
		log.Println("error encoding status:", err)
	}
}
