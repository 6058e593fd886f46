package notifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureBodyHandler(dst *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*dst = string(body)
		w.WriteHeader(http.StatusOK)
	}
}

type fakeChannel struct {
	name string
	err  error
}

func (f *fakeChannel) Name() string      { return f.name }
func (f *fakeChannel) MaxBytes() int     { return 4096 }
func (f *fakeChannel) Send(ctx context.Context, report Report) error { return f.err }

func TestSendAllChannelsSucceed(t *testing.T) {
	n := New([]Channel{&fakeChannel{name: "a"}, &fakeChannel{name: "b"}})
	result := n.Send(context.Background(), Report{Title: "t", Body: "body"})

	assert.True(t, result.Success)
	require.Len(t, result.ChannelResults, 2)
	assert.NoError(t, result.ChannelResults["a"])
	assert.NoError(t, result.ChannelResults["b"])
}

func TestSendPartialFailureDoesNotBlockOtherChannels(t *testing.T) {
	n := New([]Channel{
		&fakeChannel{name: "a"},
		&fakeChannel{name: "b", err: errors.New("webhook unreachable")},
	})
	result := n.Send(context.Background(), Report{Title: "t", Body: "body"})

	assert.False(t, result.Success)
	assert.NoError(t, result.ChannelResults["a"])
	assert.Error(t, result.ChannelResults["b"])
}

func TestSendNoChannelsSucceedsTrivially(t *testing.T) {
	n := New(nil)
	result := n.Send(context.Background(), Report{})
	assert.True(t, result.Success)
	assert.Empty(t, result.ChannelResults)
}

func TestTruncateUTF8LeavesShortStringsUntouched(t *testing.T) {
	assert.Equal(t, "hello", truncateUTF8("hello", 100))
}

func TestTruncateUTF8CutsOnRuneBoundaryWithMarker(t *testing.T) {
	s := strRepeat("报", 50)
	out := truncateUTF8(s, 30)
	assert.LessOrEqual(t, len([]byte(out)), 30+len("...(截断)"))
	assert.Contains(t, out, "...(截断)")
}

func strRepeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

func TestWeChatWorkChannelPostsMarkdownPayload(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(captureBodyHandler(&gotBody))
	defer srv.Close()

	ch := NewWeChatWorkChannel(srv.URL, 4096)
	err := ch.Send(context.Background(), Report{Title: "t", Body: "# 报告"})
	require.NoError(t, err)
	assert.Contains(t, gotBody, `"msgtype":"markdown"`)
	assert.Contains(t, gotBody, "报告")
}
