package discordgo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/aescanero/spellforge/pkg/chat"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// redirect sends every request to target, keeping the path
type redirect struct {
	target *url.URL
}

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	session, err := discordgo.New("Bot test-token")
	require.NoError(t, err)
	session.Client = &http.Client{Transport: redirect{target: target}}
	session.MaxRestRetries = 0

	return NewClientWithSession(session, zaptest.NewLogger(t))
}

func TestGuildChannels(t *testing.T) {
	var gotPath, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"1","name":"lobby","type":2},
			{"id":"2","name":"general","type":0},
			{"id":"3","name":"stage","type":13}
		]`))
	})

	channels, err := client.GuildChannels(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, "/api/v9/guilds/42/channels", gotPath)
	assert.Equal(t, "Bot test-token", gotAuth)
	assert.Equal(t, []chat.Channel{
		{ID: "1", Name: "lobby", Type: chat.ChannelTypeGuildVoice},
		{ID: "2", Name: "general", Type: chat.ChannelTypeGuildText},
		{ID: "3", Name: "stage", Type: chat.ChannelTypeGuildStage},
	}, channels)
}

func TestGuildChannelsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Missing Access","code":50001}`))
	})

	_, err := client.GuildChannels(context.Background(), "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list guild channels")
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient("", nil)
	require.Error(t, err)
}
