// Package mcp serves InterVue reporting tools to MCP clients over stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/intervue-ai/intervue/pkg/models"
	"github.com/intervue-ai/intervue/pkg/similarity"
)

// Backend is the read-only slice of the interview service the tools need.
type Backend interface {
	Session(ctx context.Context, id string) (*models.Session, error)
	Analytics(ctx context.Context) (models.Analytics, error)
	CacheStats() (models.CacheStats, bool)
}

// Server answers JSON-RPC 2.0 requests, one per line.
type Server struct {
	backend Backend
	scorer  *similarity.Scorer
	version string
}

// New creates a Server backed by b.
func New(b Backend, version string) *Server {
	return &Server{backend: b, scorer: similarity.New(), version: version}
}

// Run reads requests from r and writes responses to w until r is exhausted
// or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, Response{JSONRPC: "2.0", Error: &RPCError{Code: CodeParseError, Message: "parse error"}})
			continue
		}
		if resp := s.dispatch(ctx, &req); resp != nil {
			s.write(w, *resp)
		}
	}
	return sc.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	resp := &Response{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "initialize":
		resp.Result = InitializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      ServerInfo{Name: "intervue", Version: s.version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		}
	case "notifications/initialized":
		return nil
	case "tools/list":
		resp.Result = ToolsListResult{Tools: tools}
	case "tools/call":
		var p ToolCallParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			resp.Error = &RPCError{Code: CodeInvalidParams, Message: "invalid params"}
			return resp
		}
		h, ok := handlers[p.Name]
		if !ok {
			resp.Result = errorResult("unknown tool: " + p.Name)
			return resp
		}
		resp.Result = h(ctx, s, p.Arguments)
	default:
		resp.Error = &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", req.Method)}
	}
	return resp
}

func (s *Server) write(w io.Writer, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("mcp: marshal response: %v", err)
		return
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("mcp: write response: %v", err)
	}
}
