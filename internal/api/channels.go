package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lumacue/lumacue-core/internal/dmx"
	"github.com/lumacue/lumacue-core/internal/show"
)

type setChannelRequest struct {
	Value int `json:"value"`
}

// handleGetChannels returns a snapshot of all 512 channel values.
func (s *Server) handleGetChannels(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.universe.Snapshot()
	values := make([]int, dmx.NumChannels)
	for i, v := range snapshot {
		values[i] = int(v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": values})
}

// handleGetChannel returns a single channel value.
func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	address, ok := parseAddress(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"address": address,
		"value":   s.player.GetChannel(address),
	})
}

// handleSetChannel sets a single channel value. Values outside 0-255 are
// clamped.
func (s *Server) handleSetChannel(w http.ResponseWriter, r *http.Request) {
	address, ok := parseAddress(w, r)
	if !ok {
		return
	}

	var body setChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.player.SetChannel(address, body.Value)
	writeJSON(w, http.StatusOK, map[string]int{
		"address": address,
		"value":   s.player.GetChannel(address),
	})
}

type setChannelsRequest struct {
	Channels map[string]int `json:"channels"`
}

// handleSetChannels sets multiple channels in one call. Addresses outside
// 1-512 are rejected; values outside 0-255 are clamped.
func (s *Server) handleSetChannels(w http.ResponseWriter, r *http.Request) {
	var body setChannelsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(body.Channels) == 0 {
		writeBadRequest(w, "channels map must not be empty")
		return
	}

	values := make(map[int]int, len(body.Channels))
	for key, value := range body.Channels {
		address, err := strconv.Atoi(key)
		if err != nil || address < 1 || address > dmx.NumChannels {
			writeBadRequest(w, "channel addresses must be integers between 1 and 512")
			return
		}
		values[address] = value
	}

	s.player.SetChannels(values)
	writeJSON(w, http.StatusOK, map[string]int{"updated": len(values)})
}

type masterDimmerRequest struct {
	Value float64 `json:"value"`
}

// handleMasterDimmer sets every patched fixture's dimmer channel to the
// given percentage.
func (s *Server) handleMasterDimmer(w http.ResponseWriter, r *http.Request) {
	var body masterDimmerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.Value < 0 || body.Value > 100 {
		writeBadRequest(w, "value must be between 0 and 100")
		return
	}

	s.player.MasterDimmer(body.Value)
	writeJSON(w, http.StatusOK, map[string]float64{"value": body.Value})
}

type masterColorRequest struct {
	Color show.Color `json:"color"`
}

// handleMasterColor applies a colour to every patched fixture with colour
// channels.
func (s *Server) handleMasterColor(w http.ResponseWriter, r *http.Request) {
	var body masterColorRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.player.MasterColor(body.Color)
	writeJSON(w, http.StatusOK, map[string]any{"color": body.Color})
}

// handleBlackout zeroes the whole universe.
func (s *Server) handleBlackout(w http.ResponseWriter, _ *http.Request) {
	s.player.Blackout()
	writeJSON(w, http.StatusOK, map[string]string{"status": "blackout"})
}

// parseAddress extracts and validates the channel address URL parameter.
func parseAddress(w http.ResponseWriter, r *http.Request) (int, bool) {
	address, err := strconv.Atoi(chi.URLParam(r, "address"))
	if err != nil || address < 1 || address > dmx.NumChannels {
		writeBadRequest(w, "address must be an integer between 1 and 512")
		return 0, false
	}
	return address, true
}
