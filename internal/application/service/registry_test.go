package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-e2e/internal/domain/entity"
)

type stubTool struct {
	name entity.ToolName
}

func (s stubTool) Name() entity.ToolName                           { return s.name }
func (s stubTool) Description() string                             { return "stub " + s.name.String() }
func (s stubTool) Parameters() map[string]interface{}              { return map[string]interface{}{"type": "object"} }
func (s stubTool) Execute(context.Context, string) (string, error) { return "ok", nil }

func TestToolRegistry(t *testing.T) {
	r := NewToolRegistry()
	r.Register(stubTool{name: "zeta"})
	r.Register(stubTool{name: "alpha"})
	r.Register(stubTool{name: "mid"})

	tool, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, entity.ToolName("alpha"), tool.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "mid", defs[1].Name)
	assert.Equal(t, "zeta", defs[2].Name)
	assert.Equal(t, "stub zeta", defs[2].Description)
}

func TestToolRegistry_RegisterReplaces(t *testing.T) {
	r := NewToolRegistry()
	r.Register(stubTool{name: "same"})
	r.Register(stubTool{name: "same"})

	assert.Len(t, r.All(), 1)
}
