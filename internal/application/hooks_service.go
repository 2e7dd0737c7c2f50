package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/logging"
)

const (
	ContextSessionStart = "session_start"
	ContextToolResult   = "tool_result"
)

var (
	hooksLog = logging.ForComponent(logging.CompHooks)

	errorKeywords = []string{"error", "failed", "exception", "timeout", "❌", "失敗"}
	helpKeywords  = []string{"需要", "help", "assist", "協助", "檢查"}
)

// HookEnv describes the calling session as seen by a host hook.
type HookEnv struct {
	Host            string
	ProcessID       int
	ProjectPath     string
	TerminalSession string
}

// HookService backs the host lifecycle hooks. None of its methods return an
// error: a hook must never disrupt the session that fired it.
type HookService struct {
	registry      *Registry
	router        *Router
	voice         *VoiceService
	displayLength int
}

func NewHookService(registry *Registry, router *Router, voice *VoiceService, displayLength int) *HookService {
	if displayLength <= 0 {
		displayLength = domain.DefaultDisplayLength
	}
	return &HookService{registry: registry, router: router, voice: voice, displayLength: displayLength}
}

func (h *HookService) SessionStart(ctx context.Context, env HookEnv) (domain.InstanceID, SendResult) {
	id := h.register(ctx, env)
	if id == "" {
		return "", SendResult{}
	}

	if !h.voiceAllowed(ctx, env.ProjectPath) {
		return id, SendResult{}
	}

	name := domain.Instance{ProjectPath: env.ProjectPath}.ProjectName()
	result := h.router.Send(ctx, fmt.Sprintf("Session started: %s", name), domain.EmotionGentle, ContextSessionStart)
	return id, result
}

// UserSubmit touches the record registered for the project, or registers
// one when there is none.
func (h *HookService) UserSubmit(ctx context.Context, env HookEnv) domain.InstanceID {
	if instance, ok := h.registry.FindByProject(ctx, env.ProjectPath); ok {
		h.registry.Touch(ctx, instance.ID)
		return instance.ID
	}
	return h.register(ctx, env)
}

// ToolResult notifies only when the output looks like an error or a request
// for help. The second value reports whether a notification was attempted.
func (h *HookService) ToolResult(ctx context.Context, env HookEnv, output string) (SendResult, bool) {
	emotion, ok := ClassifyToolResult(output)
	if !ok {
		return SendResult{}, false
	}
	if !h.voiceAllowed(ctx, env.ProjectPath) {
		return SendResult{}, false
	}

	message := "Tool result needs attention: " + domain.TruncateMessage(strings.TrimSpace(output), h.displayLength)
	if instance, found := h.registry.FindByProject(ctx, env.ProjectPath); found {
		h.registry.Touch(ctx, instance.ID)
	}
	return h.router.Send(ctx, message, emotion, ContextToolResult), true
}

// ClassifyToolResult maps tool output onto an emotion. Error keywords take
// precedence over help keywords; anything else is not worth a notification.
func ClassifyToolResult(output string) (domain.Emotion, bool) {
	lowered := strings.ToLower(output)
	if strings.TrimSpace(lowered) == "" {
		return "", false
	}

	for _, keyword := range errorKeywords {
		if strings.Contains(lowered, keyword) {
			return domain.EmotionUrgent, true
		}
	}
	for _, keyword := range helpKeywords {
		if strings.Contains(lowered, keyword) {
			return domain.EmotionGentle, true
		}
	}
	return "", false
}

func (h *HookService) register(ctx context.Context, env HookEnv) domain.InstanceID {
	id := domain.NewInstanceID(env.Host, env.ProcessID, h.registry.Now())
	outcome := h.registry.Register(ctx, id, domain.InstanceMetadata{
		ProcessID:       env.ProcessID,
		ProjectPath:     env.ProjectPath,
		TerminalSession: env.TerminalSession,
	})
	if outcome.Err != nil {
		hooksLog.Warn("hook_register_failed", slog.String("error", outcome.Err.Error()))
		return ""
	}

	hooksLog.Info("instance_registered",
		slog.String("instance", string(id)),
		slog.String("project", env.ProjectPath),
		slog.Int("pid", env.ProcessID),
	)
	return id
}

func (h *HookService) voiceAllowed(ctx context.Context, projectPath string) bool {
	if h.voice == nil {
		return true
	}
	return h.voice.Allowed(ctx, projectPath)
}
