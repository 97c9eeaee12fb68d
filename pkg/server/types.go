package server

import (
	"mercator-hq/cadence/pkg/device"
	"mercator-hq/cadence/pkg/playback"
)

// PlayRequest is the body of POST /v1/play.
type PlayRequest struct {
	// Name is a clip, event or play group name.
	Name string `json:"name"`

	// Position emits the sound at a world position.
	Position *device.Vec3 `json:"position,omitempty"`

	// Volume and Pitch adjust the instance once it has started.
	Volume *float64 `json:"volume,omitempty"`
	Pitch  *float64 `json:"pitch,omitempty"`
}

// PlayResponse is returned for a started instance.
type PlayResponse struct {
	Instance InstanceInfo `json:"instance"`
}

// StopRequest is the body of POST /v1/stop. InstanceID takes precedence
// over Name; with neither set every instance stops.
type StopRequest struct {
	Name        string `json:"name,omitempty"`
	InstanceID  uint64 `json:"instance_id,omitempty"`
	FadeOut     bool   `json:"fade_out"`
	OnlyLooping bool   `json:"only_looping,omitempty"`
}

// StopResponse reports how many instances were stopped or set fading.
type StopResponse struct {
	Stopped int `json:"stopped"`
}

// InstanceInfo describes a live instance.
type InstanceInfo struct {
	ID        uint64  `json:"id"`
	Clip      string  `json:"clip"`
	Bank      string  `json:"bank"`
	PlayGroup string  `json:"play_group,omitempty"`
	State     string  `json:"state"`
	Paused    bool    `json:"paused"`
	Loop      bool    `json:"loop"`
	Priority  int     `json:"priority"`
	Volume    float64 `json:"volume"`
	ElapsedMS int64   `json:"elapsed_ms"`
	Progress  float64 `json:"progress"`
}

// InstancesResponse is the body of GET /v1/instances.
type InstancesResponse struct {
	Instances []InstanceInfo `json:"instances"`
}

// BankInfo describes a registered bank.
type BankInfo struct {
	Name      string   `json:"name"`
	CacheType string   `json:"cache_type"`
	Clips     []string `json:"clips"`
	Events    []string `json:"events,omitempty"`
}

// BanksResponse is the body of GET /v1/banks.
type BanksResponse struct {
	Banks []BankInfo `json:"banks"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine readable code next to the message.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func instanceInfo(inst *playback.Instance) InstanceInfo {
	return InstanceInfo{
		ID:        inst.ID(),
		Clip:      inst.ClipName(),
		Bank:      inst.BankName(),
		PlayGroup: inst.PlayGroup(),
		State:     inst.State().String(),
		Paused:    inst.IsPaused(),
		Loop:      inst.Loop(),
		Priority:  inst.Priority(),
		Volume:    inst.Volume(),
		ElapsedMS: inst.Elapsed().Milliseconds(),
		Progress:  inst.Progress(),
	}
}
