package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const maxLegacyBody = 1 << 20

// legacyHandler serves the playground's POST /api/run-luma. Every answer is
// a 200 JSON object with either {success, output} or {success, error}.
type legacyHandler struct {
	service *RunService
	timeout time.Duration
}

func newLegacyHandler(service *RunService, timeout time.Duration) http.Handler {
	return &legacyHandler{service: service, timeout: timeout}
}

func (h *legacyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		setCORSHeaders(w)
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxLegacyBody))
	if err != nil {
		h.fail(w, fmt.Sprintf("Server error: %s", err))
		return
	}

	req := new(structpb.Struct)
	if err := protojson.Unmarshal(body, req); err != nil {
		h.fail(w, "Invalid JSON in request")
		return
	}

	code := strings.TrimSpace(stringField(req, "code"))
	res, err := h.service.Execute(r.Context(), code, "")
	switch {
	case errors.Is(err, ErrNoCode):
		h.fail(w, "No code provided")
	case errors.Is(err, ErrTimeout):
		h.fail(w, fmt.Sprintf("Code execution timed out (%s)", h.timeout))
	case err != nil:
		h.fail(w, fmt.Sprintf("Server error: %s", err))
	case !res.Success:
		h.fail(w, res.Error)
	default:
		writeJSON(w, map[string]*structpb.Value{
			"success": structpb.NewBoolValue(true),
			"output":  structpb.NewStringValue(strings.TrimSpace(res.Output)),
		})
	}
}

func (h *legacyHandler) fail(w http.ResponseWriter, msg string) {
	log.Infof("playground request failed: %s", msg)
	writeJSON(w, map[string]*structpb.Value{
		"success": structpb.NewBoolValue(false),
		"error":   structpb.NewStringValue(msg),
	})
}

func writeJSON(w http.ResponseWriter, fields map[string]*structpb.Value) {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(&structpb.Struct{Fields: fields})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	setCORSHeaders(w)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
