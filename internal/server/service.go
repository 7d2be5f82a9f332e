package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Z2ZATL/Luma-CL/internal/parser"
	"github.com/Z2ZATL/Luma-CL/internal/vm"
	luma "github.com/Z2ZATL/Luma-CL/pkg/embed"
)

var (
	// ErrNoCode is returned when a request carries no source.
	ErrNoCode = errors.New("no code provided")
	// ErrSessionNotFound is returned for an unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTimeout is returned when an execution exceeds the server timeout.
	ErrTimeout = errors.New("execution timed out")
)

// ExecuteResult is the outcome of one Execute call. A Luma failure is a
// result, not an error.
type ExecuteResult struct {
	Success bool
	Output  string
	Result  string
	Error   string
}

// RunService runs Luma code for every transport.
type RunService struct {
	sessions *SessionStore
	timeout  time.Duration
}

// NewRunService creates a service bounded by timeout per execution.
func NewRunService(sessions *SessionStore, timeout time.Duration) *RunService {
	return &RunService{sessions: sessions, timeout: timeout}
}

// Execute runs code in a fresh VM, or in the session's VM when sessionID is
// set. Output is captured per call.
func (s *RunService) Execute(ctx context.Context, code, sessionID string) (*ExecuteResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrNoCode
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var out bytes.Buffer
	var machine *luma.VM
	if sessionID != "" {
		session, ok := s.sessions.Get(sessionID)
		if !ok {
			return nil, ErrSessionNotFound
		}
		session.mu.Lock()
		defer session.mu.Unlock()
		session.touch()
		machine = session.vm
		machine.SetOutput(&out)
		machine.SetContext(ctx)
	} else {
		machine = luma.New(luma.WithOutput(&out), luma.WithContext(ctx))
		defer machine.Close()
	}

	start := time.Now()
	value, err := machine.Eval(code)
	log.Infof("execute session=%q took %s", sessionID, time.Since(start))

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return &ExecuteResult{Output: out.String(), Error: err.Error()}, nil
	}
	return &ExecuteResult{
		Success: true,
		Output:  out.String(),
		Result:  displayResult(value),
	}, nil
}

// OpenSession starts a persistent session.
func (s *RunService) OpenSession() string {
	return s.sessions.Create().ID
}

// CloseSession ends a session.
func (s *RunService) CloseSession(id string) error {
	if !s.sessions.Destroy(id) {
		return ErrSessionNotFound
	}
	return nil
}

// Disassemble compiles code and returns its listing.
func (s *RunService) Disassemble(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrNoCode
	}
	program, err := parser.Parse(code)
	if err != nil {
		return "", err
	}
	chunk, err := vm.Compile(program)
	if err != nil {
		return "", err
	}
	return vm.Disassemble(chunk, "script"), nil
}

func displayResult(value interface{}) string {
	v, err := luma.NewMarshaller().ToValue(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return v.String()
}

// ============================================================================
// structpb message mapping
// ============================================================================

func stringField(req *structpb.Struct, name string) string {
	if req == nil {
		return ""
	}
	if v, ok := req.GetFields()[name]; ok {
		return v.GetStringValue()
	}
	return ""
}

func (r *ExecuteResult) toStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"success": structpb.NewBoolValue(r.Success),
		"output":  structpb.NewStringValue(r.Output),
		"result":  structpb.NewStringValue(r.Result),
		"error":   structpb.NewStringValue(r.Error),
	}}
}

func executeRequest(ctx context.Context, s *RunService, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.Execute(ctx, stringField(req, "code"), stringField(req, "session_id"))
	if err != nil {
		return nil, err
	}
	return res.toStruct(), nil
}

func openSessionRequest(s *RunService) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"session_id": structpb.NewStringValue(s.OpenSession()),
	}}
}

func closeSessionRequest(s *RunService, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.CloseSession(stringField(req, "session_id")); err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"closed": structpb.NewBoolValue(true),
	}}, nil
}

func disassembleRequest(s *RunService, req *structpb.Struct) (*structpb.Struct, error) {
	listing, err := s.Disassemble(stringField(req, "code"))
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"listing": structpb.NewStringValue(listing),
	}}, nil
}
