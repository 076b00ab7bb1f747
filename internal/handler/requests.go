package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// flexInt accepts a JSON number or a numeric string, since clients send
// form values as strings
type flexInt struct {
	Value int
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexInt{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%q is not an integer", s)
		}
		*f = flexInt{Value: n, Set: true}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%s is not an integer", data)
	}
	*f = flexInt{Value: n, Set: true}
	return nil
}

func (f flexInt) Ptr() *int {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

type startSessionRequest struct {
	PomodoroCount flexInt `json:"pomodoro_count"`
}

type tickRequest struct {
	DistractionDetected bool `json:"distraction_detected"`
	// nil when the field is absent so the stored labels are kept
	DetectedObjects []string `json:"detected_objects" validate:"omitempty,max=100,dive,max=100"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
