package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nergy-se/hitemp/pkg/api/v1/device"
	"github.com/nergy-se/hitemp/pkg/api/v1/types"
	"github.com/nergy-se/hitemp/pkg/catalog"
	"github.com/nergy-se/hitemp/pkg/state"
	"github.com/nergy-se/hitemp/pkg/version"
	"github.com/sirupsen/logrus"
)

type healthResponse struct {
	Status            string `json:"status"`
	Phase             string `json:"phase"`
	LastUpdateSuccess bool   `json:"lastUpdateSuccess"`
	LastError         string `json:"lastError,omitempty"`
}

type deviceResponse struct {
	device.Device
	Available bool        `json:"available"`
	State     state.State `json:"state"`
}

type paramResponse struct {
	Code  string            `json:"code"`
	Value interface{}       `json:"value"`
	Param *catalog.ParamDef `json:"param,omitempty"`
}

type writeRequest struct {
	Value *float64 `json:"value"`
}

type controlResponse struct {
	Kind          types.ControlKind `json:"kind"`
	Enabled       bool              `json:"enabled"`
	Target        *float64          `json:"target,omitempty"`
	ImpliedTarget *float64          `json:"impliedTarget,omitempty"`
	Setpoint      *float64          `json:"setpoint,omitempty"`
}

type controlRequest struct {
	Target *float64 `json:"target"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		logrus.Errorf("web: error encoding response: %s", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:            "ok",
		Phase:             s.app.Phase().String(),
		LastUpdateSuccess: s.app.LastUpdateSuccess(),
	}
	if err := s.app.LastError(); err != nil {
		resp.Status = "degraded"
		resp.LastError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

func (s *Server) listParams(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" {
		writeJSON(w, http.StatusOK, catalog.Category(category))
		return
	}
	list := make([]catalog.ParamDef, 0)
	for _, code := range catalog.Codes() {
		p, _ := catalog.Lookup(code)
		list = append(list, p)
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) alarms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Alarms())
}

func (s *Server) listDevices(w http.ResponseWriter, _ *http.Request) {
	resp := make([]deviceResponse, 0)
	for _, d := range s.app.Devices() {
		resp = append(resp, s.deviceResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deviceResponse(d device.Device) deviceResponse {
	return deviceResponse{
		Device:    d,
		Available: s.app.Available(d.DeviceCode),
		State:     s.app.State(d.DeviceCode),
	}
}

func (s *Server) getDevice(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["device"]
	d := s.app.GetDeviceMetadata(code)
	if d == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("device %s not found", code))
		return
	}
	writeJSON(w, http.StatusOK, s.deviceResponse(*d))
}

func (s *Server) getParam(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	value, ok := s.app.GetRegister(vars["device"], vars["code"])
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no value for %s on %s", vars["code"], vars["device"]))
		return
	}
	resp := paramResponse{Code: vars["code"], Value: value}
	if p, ok := catalog.Lookup(vars["code"]); ok {
		resp.Param = &p
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeParam(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	p, ok := catalog.Lookup(vars["code"])
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown parameter %s", vars["code"]))
		return
	}
	if s.app.GetDeviceMetadata(vars["device"]) == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("device %s not found", vars["device"]))
		return
	}

	req := writeRequest{}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("value is required"))
		return
	}
	err = p.Validate(*req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if !s.app.WriteParam(r.Context(), vars["device"], p.Code, *req.Value) {
		writeError(w, http.StatusBadGateway, fmt.Errorf("write of %s failed", p.Code))
		return
	}
	writeJSON(w, http.StatusAccepted, paramResponse{Code: p.Code, Value: *req.Value, Param: &p})
}

func (s *Server) control(w http.ResponseWriter, r *http.Request) (types.ControlKind, string, bool) {
	vars := mux.Vars(r)
	kind, err := types.ParseControlKind(vars["kind"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return "", "", false
	}
	return kind, vars["device"], true
}

func (s *Server) controlResponse(kind types.ControlKind, deviceCode string) controlResponse {
	return controlResponse{
		Kind:          kind,
		Enabled:       s.app.IsControlEnabled(kind, deviceCode),
		Target:        s.app.GetControlTarget(kind, deviceCode),
		ImpliedTarget: s.app.CalculateImpliedTarget(kind, deviceCode),
		Setpoint:      s.app.GetFloat(deviceCode, catalog.SetpointCode),
	}
}

func (s *Server) getControl(w http.ResponseWriter, r *http.Request) {
	kind, deviceCode, ok := s.control(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.controlResponse(kind, deviceCode))
}

func (s *Server) enableControl(w http.ResponseWriter, r *http.Request) {
	kind, deviceCode, ok := s.control(w, r)
	if !ok {
		return
	}
	if s.app.GetDeviceMetadata(deviceCode) == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("device %s not found", deviceCode))
		return
	}
	req := controlRequest{}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Target == nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("target is required"))
		return
	}
	err = s.app.EnableControl(kind, deviceCode, *req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.controlResponse(kind, deviceCode))
}

func (s *Server) disableControl(w http.ResponseWriter, r *http.Request) {
	kind, deviceCode, ok := s.control(w, r)
	if !ok {
		return
	}
	err := s.app.DisableControl(kind, deviceCode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.controlResponse(kind, deviceCode))
}
