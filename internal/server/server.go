package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/detection-tiles-mcp/internal/config"
	"github.com/ironsheep/detection-tiles-mcp/internal/detection"
	"github.com/ironsheep/detection-tiles-mcp/internal/imaging"
	"github.com/ironsheep/detection-tiles-mcp/internal/ocr"
	"github.com/ironsheep/detection-tiles-mcp/internal/render"
	"github.com/ironsheep/detection-tiles-mcp/internal/solver"
)

// Version is reported in the initialize handshake.
var Version = "0.1.0"

// Server handles MCP protocol communication
type Server struct {
	cfg      *config.Config
	logger   *zap.SugaredLogger
	cache    *imaging.ImageCache
	labels   *detection.LabelTable
	renderer *render.Renderer
	reader   *ocr.Reader

	mu       sync.Mutex
	attempts map[string]*solver.State
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes used by the server.
const (
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeToolFailed     = -32000
)

// New creates a server from cfg. A nil cfg uses config.DefaultConfig() and
// a nil logger disables logging.
func New(cfg *config.Config, logger *zap.SugaredLogger) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	labels, err := cfg.Labels()
	if err != nil {
		return nil, fmt.Errorf("loading labels: %w", err)
	}

	reader := ocr.NewReader(cfg.InstructionRegion, cfg.OCRLanguage, cfg.Aliases, labels, logger.Named("ocr"))
	reader.Scale = cfg.OCRScale

	return &Server{
		cfg:      cfg,
		logger:   logger,
		cache:    imaging.NewImageCache(),
		labels:   labels,
		renderer: render.New(cfg.Render, labels, logger.Named("render")),
		reader:   reader,
		attempts: make(map[string]*solver.State),
	}, nil
}

// Run serves requests from stdin and writes responses to stdout.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from in and writes responses
// to out until in is exhausted.
func (s *Server) Serve(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Detection batches and base64 images make for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warnw("failed to parse request", "error", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Errorw("failed to encode response", "method", req.Method, "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	s.logger.Debugw("request", "method", req.Method, "id", req.ID)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return s.errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "detection-tiles-mcp",
				"version": Version,
			},
		},
	}
}

// handleToolsList returns the tool catalogue.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

// newAttempt registers a fresh activation state and returns its id.
func (s *Server) newAttempt() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.attempts[id] = solver.NewState()
	s.mu.Unlock()
	s.logger.Infow("attempt started", "attempt_id", id)
	return id
}

// attempt returns the state registered for id.
func (s *Server) attempt(id string) (*solver.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.attempts[id]
	return st, ok
}

// endAttempt drops the state for id and reports whether it existed.
func (s *Server) endAttempt(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.attempts[id]
	delete(s.attempts, id)
	return ok
}
