package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RunBuffer 收集单次运行中 INFO 及以上级别的日志行，用于生成面向用户的处理摘要
// 实现 zapcore.Core，通过 Tee 挂在运行日志器上
type RunBuffer struct {
	state  *bufferState
	fields []zapcore.Field
}

type bufferState struct {
	mu     sync.Mutex
	lines  []string
	counts map[zapcore.Level]int
}

// NewRunBuffer 创建空的运行日志缓冲
func NewRunBuffer() *RunBuffer {
	return &RunBuffer{state: &bufferState{counts: make(map[zapcore.Level]int)}}
}

// Tee 返回同时写入 base 与缓冲的日志器
func (b *RunBuffer) Tee(base *zap.Logger) *zap.Logger {
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, b)
	}))
}

// Lines 返回已收集的日志行副本
func (b *RunBuffer) Lines() []string {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	out := make([]string, len(b.state.lines))
	copy(out, b.state.lines)
	return out
}

// Count 返回指定级别的日志条数
func (b *RunBuffer) Count(level zapcore.Level) int {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	return b.state.counts[level]
}

// ── zapcore.Core ──

func (b *RunBuffer) Enabled(level zapcore.Level) bool {
	return level >= zapcore.InfoLevel
}

func (b *RunBuffer) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(b.fields)+len(fields))
	merged = append(merged, b.fields...)
	merged = append(merged, fields...)
	return &RunBuffer{state: b.state, fields: merged}
}

func (b *RunBuffer) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if b.Enabled(ent.Level) {
		return ce.AddCore(ent, b)
	}
	return ce
}

func (b *RunBuffer) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	line := fmt.Sprintf("[%s] %s", ent.Level.CapitalString(), ent.Message)
	if suffix := renderFields(append(append([]zapcore.Field{}, b.fields...), fields...)); suffix != "" {
		line += " (" + suffix + ")"
	}

	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	b.state.lines = append(b.state.lines, line)
	b.state.counts[ent.Level]++
	return nil
}

func (b *RunBuffer) Sync() error { return nil }

// renderFields 将字段渲染为按键排序的 key=value 列表；错误字段只保留消息
func renderFields(fields []zapcore.Field) string {
	if len(fields) == 0 {
		return ""
	}
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, enc.Fields[k]))
	}
	return strings.Join(parts, ", ")
}
