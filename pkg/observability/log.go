package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records to a
// charmbracelet logger. The CLI installs it when --verbose is set.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

// Install registers h for pipeline, cache and HTTP events.
func (h *LogHooks) Install() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnProjectStart(_ context.Context, groups int) {
	h.logger.Debug("projecting", "groups", groups)
}

func (h *LogHooks) OnProjectComplete(_ context.Context, nodes, edges int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("projection failed", "err", err, "duration", d)
		return
	}
	h.logger.Debug("projected", "nodes", nodes, "edges", edges, "duration", d)
}

func (h *LogHooks) OnAnalyzeStart(_ context.Context, nodes int) {
	h.logger.Debug("analyzing", "nodes", nodes)
}

func (h *LogHooks) OnAnalyzeComplete(_ context.Context, nodes int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("analysis failed", "err", err, "duration", d)
		return
	}
	h.logger.Debug("analyzed", "nodes", nodes, "duration", d)
}

func (h *LogHooks) OnCollectRepo(_ context.Context, repo string, members int, err error) {
	if err != nil {
		h.logger.Debug("collect failed", "repo", repo, "err", err)
		return
	}
	h.logger.Debug("collected", "repo", repo, "members", members)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request failed", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
