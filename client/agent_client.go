package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/otherjamesbrown/meetprep/config"
	"github.com/otherjamesbrown/meetprep/pkg/buildinfo"
	apperrors "github.com/otherjamesbrown/meetprep/pkg/errors"
	"github.com/otherjamesbrown/meetprep/pkg/logging"
)

// Asker sends one natural-language question to the agent and returns its
// text answer.
type Asker interface {
	Ask(ctx context.Context, question string, timeout time.Duration) (string, error)
}

// Session is the part of an MCP client session the agent client uses.
// *mcpclient.Client satisfies it.
type Session interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Dialer opens a fresh session with the agent.
type Dialer func(ctx context.Context) (Session, error)

// AgentClient asks questions through the agent's MCP server. Every question
// runs in its own subprocess, which is stopped once the answer arrives or
// the timeout expires.
type AgentClient struct {
	dial           Dialer
	defaultTimeout time.Duration
	logger         logging.Logger
}

// AgentOption customizes an AgentClient.
type AgentOption func(*AgentClient)

// WithDialer replaces the subprocess dialer.
func WithDialer(d Dialer) AgentOption {
	return func(c *AgentClient) { c.dial = d }
}

// WithAgentLogger sets the logger.
func WithAgentLogger(l logging.Logger) AgentOption {
	return func(c *AgentClient) { c.logger = l }
}

// WithDefaultTimeout sets the timeout used when Ask gets none.
func WithDefaultTimeout(d time.Duration) AgentOption {
	return func(c *AgentClient) { c.defaultTimeout = d }
}

// NewAgentClient creates a client that spawns cfg.Command with cfg.Args.
func NewAgentClient(cfg config.AgentConfig, opts ...AgentOption) *AgentClient {
	c := &AgentClient{
		dial:           StdioDialer(cfg.Command, cfg.Args, cfg.Env),
		defaultTimeout: config.DefaultTimeout,
		logger:         logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StdioDialer starts command as an MCP server speaking over stdin/stdout.
// env entries are added to the current environment.
func StdioDialer(command string, args, env []string) Dialer {
	return func(ctx context.Context) (Session, error) {
		if _, err := exec.LookPath(command); err != nil {
			return nil, &apperrors.AgentError{
				Code:    apperrors.CodeAgentUnavailable,
				Op:      "start agent",
				Message: fmt.Sprintf("%s not found on PATH", command),
				Cause:   err,
			}
		}
		c, err := mcpclient.NewStdioMCPClient(command, env, args...)
		if err != nil {
			return nil, fmt.Errorf("starting %s: %w", command, err)
		}
		return c, nil
	}
}

// Ask runs initialize, tools/list and tools/call against a new agent
// session. A zero timeout uses the client default. Failures are returned as
// *apperrors.AgentError.
func (c *AgentClient) Ask(ctx context.Context, question string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	log := c.logger.WithContext(ctx)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	answer, err := c.ask(ctx, question)
	if err != nil {
		ae := apperrors.ClassifyError(err, "ask agent")
		ae.Duration = time.Since(start)
		ae.Timeout = timeout
		log.Warn("Agent question failed",
			logging.F("code", string(ae.Code)),
			logging.F("duration_ms", ae.Duration.Milliseconds()),
			logging.Err(err))
		return "", ae
	}

	log.Debug("Agent answered",
		logging.F("question_length", len(question)),
		logging.F("answer_length", len(answer)),
		logging.F("duration_ms", time.Since(start).Milliseconds()))
	return answer, nil
}

func (c *AgentClient) ask(ctx context.Context, question string) (string, error) {
	sess, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		// A session whose context expired may not exit on stdin close.
		if ctx.Err() != nil {
			go sess.Close()
			return
		}
		sess.Close()
	}()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "meetprep",
		Version: buildinfo.Version,
	}
	if _, err := sess.Initialize(ctx, initReq); err != nil {
		return "", fmt.Errorf("initialize: %w", err)
	}

	tools, err := sess.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return "", fmt.Errorf("tools/list: %w", err)
	}
	name, ok := SelectAskTool(tools.Tools)
	if !ok {
		return "", &apperrors.AgentError{
			Code:    apperrors.CodeAgentProtocol,
			Op:      "tools/list",
			Message: "ask tool not found. Available: " + strings.Join(toolNames(tools.Tools), ", "),
		}
	}

	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = name
	callReq.Params.Arguments = map[string]any{"question": question}
	res, err := sess.CallTool(ctx, callReq)
	if err != nil {
		return "", fmt.Errorf("tools/call %s: %w", name, err)
	}

	text := AnswerText(res)
	if res.IsError {
		return "", &apperrors.AgentError{
			Code:    apperrors.CodeAgentProtocol,
			Op:      "tools/call " + name,
			Message: text,
		}
	}
	return text, nil
}

// SelectAskTool picks workiq_ask, else ask, else the first tool whose name
// contains "ask".
func SelectAskTool(tools []mcp.Tool) (string, bool) {
	for _, want := range []string{"workiq_ask", "ask"} {
		for _, t := range tools {
			if t.Name == want {
				return t.Name, true
			}
		}
	}
	for _, t := range tools {
		if strings.Contains(t.Name, "ask") {
			return t.Name, true
		}
	}
	return "", false
}

// AnswerText joins the text items of a tool result with newlines. A result
// without text items is returned as JSON.
func AnswerText(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	var parts []string
	for _, content := range res.Content {
		switch tc := content.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}
	if len(res.Content) == 0 {
		return ""
	}
	raw, err := json.Marshal(res.Content)
	if err != nil {
		return ""
	}
	return string(raw)
}

func toolNames(tools []mcp.Tool) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}
