package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DevSymphony/sysop/internal/catalogue"
	"github.com/DevSymphony/sysop/internal/lemma"
	"github.com/DevSymphony/sysop/internal/matcher"
	"github.com/DevSymphony/sysop/internal/nlu"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()
	cat, err := catalogue.Open(catalogue.Embedded(), logger)
	require.NoError(t, err)
	parser := nlu.New(cat, matcher.New(lemma.NewSnowball(), matcher.NewFuzzy(), logger), logger)
	return NewServer(cat, parser, "linux", "test", logger)
}

func TestListIntents(t *testing.T) {
	s := newTestServer(t)

	text, rpcErr := s.handleListIntents(ListIntentsInput{Filter: "reboot"})
	require.Nil(t, rpcErr)
	assert.Contains(t, text, "power.reboot [admin]")

	text, rpcErr = s.handleListIntents(ListIntentsInput{Filter: "no-such-thing"})
	require.Nil(t, rpcErr)
	assert.Equal(t, "No intents found for the specified filter.", text)
}

func TestResolveIntent(t *testing.T) {
	s := newTestServer(t)

	text, rpcErr := s.handleResolveIntent(ResolveIntentInput{Text: "ping 8.8.8.8"})
	require.Nil(t, rpcErr)
	assert.Contains(t, text, "Intent: network.ping")
	assert.Contains(t, text, "host = 8.8.8.8")
	assert.Contains(t, text, "Required role: operator")

	_, rpcErr = s.handleResolveIntent(ResolveIntentInput{Text: "  "})
	require.NotNil(t, rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)

	text, rpcErr = s.handleResolveIntent(ResolveIntentInput{Text: "xyzzy plugh"})
	require.Nil(t, rpcErr)
	assert.Contains(t, text, "No intent matched")
}

func TestRenderCommand(t *testing.T) {
	s := newTestServer(t)

	line, rpcErr := s.handleRenderCommand(RenderCommandInput{Intent: "network.toggle_firewall", Params: map[string]string{"state": "off"}})
	require.Nil(t, rpcErr)
	assert.Equal(t, "sudo ufw --force off", line)

	_, rpcErr = s.handleRenderCommand(RenderCommandInput{Intent: "network.ping", OS: "linux"})
	require.NotNil(t, rpcErr)
	assert.Contains(t, rpcErr.Message, "missing required parameter 'host'")

	_, rpcErr = s.handleRenderCommand(RenderCommandInput{Intent: "no.such"})
	require.NotNil(t, rpcErr)
}

func TestSDKServerBuilds(t *testing.T) {
	assert.NotNil(t, newTestServer(t).sdkServer())
}
