// Package agent implements the LLM agents of the underwriting pipeline: a
// field-extraction agent that turns document text into a raw financial
// mapping, a decision agent that drafts the structured underwriting
// decision, and an orchestrator that runs the full pipeline around the
// deterministic core.
package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/harborlend/underwriteai/internal/llm"
)

// Agent is the common surface of the specialized underwriting agents.
type Agent interface {
	// Name returns the agent's identifier (e.g., "field_extractor").
	Name() string

	// Role returns a human-readable description of the agent's role.
	Role() string

	// SystemPrompt returns the system prompt that configures this agent.
	SystemPrompt() string

	// Tools returns the set of LLM tools this agent can invoke.
	Tools() []llm.Tool

	// Process executes a task and returns an AgentResult.
	Process(ctx context.Context, task string) (*AgentResult, error)
}

// AgentResult holds the output from an agent's processing.
type AgentResult struct {
	AgentName string        `json:"agent_name"`
	Role      string        `json:"role"`
	Content   string        `json:"content"` // raw LLM output
	ToolCalls int           `json:"tool_calls"`
	Tokens    int           `json:"tokens"`
	Duration  time.Duration `json:"duration"`
	Messages  []llm.Message `json:"messages"` // full conversation transcript
	Error     string        `json:"error,omitempty"`
}

// ── Memory ──

// Memory keeps a bounded sliding window of conversation messages. The
// underwriting agents are mostly one-shot, but interactive use (chat about
// a processed application) needs prior turns available.
type Memory struct {
	mu       sync.RWMutex
	messages []llm.Message
	maxSize  int
}

// NewMemory creates a conversation memory with the given window size.
func NewMemory(maxSize int) *Memory {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &Memory{
		maxSize:  maxSize,
		messages: make([]llm.Message, 0, maxSize),
	}
}

// AddAll appends messages, evicting the oldest beyond the window.
func (m *Memory) AddAll(msgs []llm.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msgs...)
	if len(m.messages) > m.maxSize {
		m.messages = m.messages[len(m.messages)-m.maxSize:]
	}
}

// Messages returns a copy of the stored messages.
func (m *Memory) Messages() []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]llm.Message, len(m.messages))
	copy(result, m.messages)
	return result
}

// Size returns the number of messages currently in memory.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// Clear resets the memory.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = m.messages[:0]
}

// ── BaseAgent ──

// BaseAgent provides the shared task loop for the specialized agents.
type BaseAgent struct {
	name         string
	role         string
	systemPrompt string
	tools        []llm.Tool
	registry     *llm.ToolRegistry
	provider     llm.LLMProvider
	memory       *Memory
	opts         *llm.ChatOptions
	maxToolIter  int
}

// BaseAgentConfig configures a BaseAgent.
type BaseAgentConfig struct {
	Name         string
	Role         string
	SystemPrompt string
	Provider     llm.LLMProvider
	Tools        []llm.Tool
	ChatOptions  *llm.ChatOptions
	MemorySize   int
	MaxToolIter  int
}

// NewBaseAgent creates a new BaseAgent from the given configuration.
func NewBaseAgent(cfg BaseAgentConfig) *BaseAgent {
	if cfg.MaxToolIter <= 0 {
		cfg.MaxToolIter = 6
	}
	if cfg.MemorySize <= 0 {
		cfg.MemorySize = 50
	}

	reg := llm.NewToolRegistry()
	for _, t := range cfg.Tools {
		reg.Register(t)
	}

	return &BaseAgent{
		name:         cfg.Name,
		role:         cfg.Role,
		systemPrompt: cfg.SystemPrompt,
		tools:        cfg.Tools,
		registry:     reg,
		provider:     cfg.Provider,
		memory:       NewMemory(cfg.MemorySize),
		opts:         cfg.ChatOptions,
		maxToolIter:  cfg.MaxToolIter,
	}
}

// Name returns the agent's identifier.
func (a *BaseAgent) Name() string { return a.name }

// Role returns the agent's role description.
func (a *BaseAgent) Role() string { return a.role }

// SystemPrompt returns the agent's system prompt.
func (a *BaseAgent) SystemPrompt() string { return a.systemPrompt }

// Tools returns the agent's available tools.
func (a *BaseAgent) Tools() []llm.Tool { return a.tools }

// Memory returns the agent's conversation memory.
func (a *BaseAgent) Memory() *Memory { return a.memory }

// Process executes a task with a fresh conversation (system prompt + task).
func (a *BaseAgent) Process(ctx context.Context, task string) (*AgentResult, error) {
	start := time.Now()

	messages := []llm.Message{
		llm.SystemMessage(a.systemPrompt),
		llm.UserMessage(task),
	}

	resp, finalMsgs, err := llm.RunToolLoop(ctx, a.provider, a.registry, messages, a.tools, a.opts, a.maxToolIter)
	if err != nil {
		return &AgentResult{
			AgentName: a.name,
			Role:      a.role,
			Error:     err.Error(),
			Duration:  time.Since(start),
			Messages:  finalMsgs,
		}, err
	}

	toolCallCount := 0
	for _, msg := range finalMsgs {
		toolCallCount += len(msg.ToolCalls)
	}

	a.memory.AddAll(finalMsgs[1:]) // skip the system prompt

	return &AgentResult{
		AgentName: a.name,
		Role:      a.role,
		Content:   resp.Content,
		ToolCalls: toolCallCount,
		Tokens:    resp.Usage.TotalTokens,
		Duration:  time.Since(start),
		Messages:  finalMsgs,
	}, nil
}

// extractJSONObject pulls the outermost JSON object out of LLM output that
// may wrap it in markdown fences or prose.
func extractJSONObject(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}
