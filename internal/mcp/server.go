// Package mcp exposes service editing as MCP tools.
package mcp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/martinsuchenak/connprops/internal/log"
	"github.com/martinsuchenak/connprops/internal/model"
	"github.com/martinsuchenak/connprops/internal/propsync"
	"github.com/martinsuchenak/connprops/internal/validate"
	"github.com/paularlott/mcp"
)

const (
	serverName    = "connprops"
	serverVersion = "1.0.0"
)

// Server wraps an MCP server bound to a property service
type Server struct {
	mcp      *mcp.Server
	service  propsync.PropertyService
	recorder propsync.Recorder
	token    string
	opts     []propsync.Option
}

// NewServer creates the MCP server. recorder may be nil.
func NewServer(svc propsync.PropertyService, recorder propsync.Recorder, token string, opts ...propsync.Option) *Server {
	s := &Server{
		mcp:      mcp.NewServer(serverName, serverVersion),
		service:  svc,
		recorder: recorder,
		token:    token,
		opts:     opts,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcp.RegisterTool(
		mcp.NewTool("get_service_config", "Get the editable configuration of a connman service",
			mcp.String("service_id", "connman service ID or object path", mcp.Required()),
		),
		func(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
			id, err := req.String("service_id")
			if err != nil {
				return nil, err
			}
			text, err := s.getConfig(ctx, id)
			if err != nil {
				return nil, err
			}
			return mcp.NewToolResponseText(text), nil
		},
	)

	s.mcp.RegisterTool(
		mcp.NewTool("get_service_section", "Get the current values of one configuration section",
			mcp.String("service_id", "connman service ID or object path", mcp.Required()),
			mcp.String("section", "general, nameservers, timeservers, domains, ipv4, ipv6 or proxy", mcp.Required()),
		),
		func(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
			id, err := req.String("service_id")
			if err != nil {
				return nil, err
			}
			section, err := req.String("section")
			if err != nil {
				return nil, err
			}
			text, err := s.getSection(ctx, id, section)
			if err != nil {
				return nil, err
			}
			return mcp.NewToolResponseText(text), nil
		},
	)

	s.mcp.RegisterTool(
		mcp.NewTool("commit_service_config", "Apply edited sections to a connman service; only changed sections are sent",
			mcp.String("service_id", "connman service ID or object path", mcp.Required()),
			mcp.String("edits", "JSON object keyed by section (general, nameservers, timeservers, domains, ipv4, ipv6, proxy)", mcp.Required()),
			mcp.Boolean("dry_run", "Only report what would change"),
		),
		func(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
			id, err := req.String("service_id")
			if err != nil {
				return nil, err
			}
			edits, err := req.String("edits")
			if err != nil {
				return nil, err
			}
			text, err := s.commit(ctx, id, edits, req.BoolOr("dry_run", false))
			if err != nil {
				return nil, err
			}
			return mcp.NewToolResponseText(text), nil
		},
	)
}

func (s *Server) getConfig(ctx context.Context, id string) (string, error) {
	engine, err := propsync.Open(ctx, s.service, id, s.opts...)
	if err != nil {
		return "", err
	}
	return toJSON(engine.Fields())
}

func (s *Server) getSection(ctx context.Context, id, name string) (string, error) {
	section, err := model.ParseSection(name)
	if err != nil {
		return "", err
	}
	engine, err := propsync.Open(ctx, s.service, id, s.opts...)
	if err != nil {
		return "", err
	}
	fields, err := engine.ResetSection(model.Fields{}, section)
	if err != nil {
		return "", err
	}
	return toJSON(fields)
}

func (s *Server) commit(ctx context.Context, id, editsJSON string, dryRun bool) (string, error) {
	var edits model.Edits
	if err := json.Unmarshal([]byte(editsJSON), &edits); err != nil {
		return "", fmt.Errorf("invalid edits: %w", err)
	}
	engine, err := propsync.Open(ctx, s.service, id, s.opts...)
	if err != nil {
		return "", err
	}
	if err := validate.Changes(edits, engine.Fields()); err != nil {
		return "", err
	}

	resp := model.CommitResponse{DryRun: dryRun, Requests: engine.Commit(edits)}
	if resp.Requests == nil {
		resp.Requests = []model.UpdateRequest{}
	}
	if !dryRun && len(resp.Requests) > 0 {
		resp.CommitID, resp.Results = propsync.Dispatch(ctx, s.service, id, resp.Requests, s.recorder)
	}

	log.Info("MCP commit", "id", id, "requests", len(resp.Requests), "dry_run", dryRun)
	return toJSON(resp)
}

// GetHTTPHandler returns the MCP endpoint, guarded by the bearer token when set
func (s *Server) GetHTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && !s.authorized(r) {
			log.Warn("Rejected unauthenticated MCP request", "remote", r.RemoteAddr)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		s.mcp.HandleRequest(w, r)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	value, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(value), []byte(s.token)) == 1
}

func (s *Server) LogStartup() {
	log.Info("MCP tools registered", "tools", "get_service_config, get_service_section, commit_service_config")
	if s.token != "" {
		log.Info("MCP authentication enabled")
	}
}

func toJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
