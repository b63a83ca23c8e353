package remote

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vsariola/groove"
	"github.com/vsariola/groove/engine"
	"github.com/vsariola/groove/player"
	"github.com/vsariola/groove/version"
	"gitlab.com/gomidi/midi/v2"
)

type (
	// NoteRequest is the body of POST /midi/{channel}.
	NoteRequest struct {
		On       bool  `json:"on"`
		Key      uint8 `json:"key"`
		Velocity uint8 `json:"velocity"`
	}

	// ControlRequest is the body of POST /control/{uid}/{param}. The value
	// is in the native range of the parameter.
	ControlRequest struct {
		Track int     `json:"track"`
		Value float64 `json:"value"`
	}

	TrackInfo struct {
		Name    string       `json:"name"`
		Devices []DeviceInfo `json:"devices"`
	}

	DeviceInfo struct {
		Uid    groove.Uid  `json:"uid"`
		Name   string      `json:"name,omitempty"`
		Kind   string      `json:"kind"`
		Params []ParamInfo `json:"params,omitempty"`
	}

	ParamInfo struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
		Min   float64 `json:"min"`
		Max   float64 `json:"max"`
	}
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.VersionOrHash})
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	reply := make(chan []TrackInfo, 1)
	query := func(m *engine.Mix) { reply <- describe(m) }
	if !player.TrySend(s.broker.ToPlayer, any(query)) {
		s.queueFull(w)
		return
	}
	tracks, ok := player.TimeoutReceive(reply, s.timeout)
	if !ok {
		http.Error(w, "player did not answer", http.StatusGatewayTimeout)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleMIDI(w http.ResponseWriter, r *http.Request) {
	channel, err := strconv.Atoi(chi.URLParam(r, "channel"))
	if err != nil || channel < 0 || channel > 15 {
		http.Error(w, "channel must be 0-15", http.StatusBadRequest)
		return
	}
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid note: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Key > 127 || req.Velocity > 127 {
		http.Error(w, "key and velocity must be 0-127", http.StatusBadRequest)
		return
	}
	msg := midi.NoteOff(uint8(channel), req.Key)
	if req.On {
		msg = midi.NoteOn(uint8(channel), req.Key, req.Velocity)
	}
	s.enqueue(w, player.MIDIMsg{Channel: groove.Channel(channel), Message: msg})
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.Atoi(chi.URLParam(r, "uid"))
	if err != nil || uid <= 0 {
		http.Error(w, "invalid uid", http.StatusBadRequest)
		return
	}
	param, err := strconv.Atoi(chi.URLParam(r, "param"))
	if err != nil || param < 0 {
		http.Error(w, "invalid parameter index", http.StatusBadRequest)
		return
	}
	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid control: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.enqueue(w, player.ControlMsg{Track: req.Track, Uid: groove.Uid(uid), Param: param, Value: req.Value})
}

func (s *Server) handleTransport(msg any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.enqueue(w, msg)
	}
}

func (s *Server) enqueue(w http.ResponseWriter, msg any) {
	if !player.TrySend(s.broker.ToPlayer, msg) {
		s.queueFull(w)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) queueFull(w http.ResponseWriter) {
	s.logger.Warn("player queue full, rejecting request")
	http.Error(w, "player queue full", http.StatusServiceUnavailable)
}

// describe runs in the player goroutine.
func describe(m *engine.Mix) []TrackInfo {
	tracks := make([]TrackInfo, m.NumTracks())
	for i := range tracks {
		o := m.Track(i)
		tracks[i].Name = m.TrackName(i)
		for _, uid := range o.Store().Uids() {
			e, _ := o.Store().Get(uid)
			d := DeviceInfo{Uid: uid, Name: o.Store().Name(uid), Kind: e.Kind()}
			for j, p := range e.Params() {
				d.Params = append(d.Params, ParamInfo{Name: p.Name, Value: e.Param(j), Min: p.Min, Max: p.Max})
			}
			tracks[i].Devices = append(tracks[i].Devices, d)
		}
	}
	return tracks
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
