package statsd

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, name, want string
	}{
		{"pulse", "session.login", "pulse.session.login"},
		{"", " api/proxy ", "api_proxy"},
		{"pulse", "foo..bar", "pulse.foo.bar"},
		{"pulse", "multi  space", "pulse.multi__space"},
		{"pulse", "..", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MetricName(tt.prefix, tt.name), "%q/%q", tt.prefix, tt.name)
	}
}

func TestClientLine_TagsSortedAndMerged(t *testing.T) {
	t.Parallel()

	c, err := NewClient(context.Background(), Config{
		Prefix:     " .pulse. ",
		GlobalTags: map[string]string{"env": "dev", "role": "none", " ": "dropped"},
	})
	require.NoError(t, err)

	line, ok := c.Line("session.login", "1", "c", map[string]string{"role": "admin", "result": "success"})
	require.True(t, ok)
	assert.Equal(t, "pulse.session.login:1|c|#env:dev,result:success,role:admin", line)

	line, ok = c.Line("session.logout", "1", "c", nil)
	require.True(t, ok)
	assert.Equal(t, "pulse.session.logout:1|c|#env:dev,role:none", line)

	_, ok = c.Line(" ", "1", "c", nil)
	assert.False(t, ok)
}

func TestClient_DisabledDropsEverything(t *testing.T) {
	t.Parallel()

	c, err := NewClient(context.Background(), Config{Enabled: false, Address: "127.0.0.1:1"})
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	c.Count("x", 1, nil)
	c.Gauge("x", 1, nil)
	c.Timing("x", time.Second, nil)
	require.NoError(t, c.Close())

	var nilClient *Client
	nilClient.Count("x", 1, nil)
	require.NoError(t, nilClient.Close())
}

func TestClient_SendsDatagrams(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	c, err := NewClient(context.Background(), Config{
		Enabled: true,
		Address: pc.LocalAddr().String(),
		Prefix:  "pulse",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.True(t, c.Enabled())

	read := func() string {
		t.Helper()
		buf := make([]byte, 512)
		require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, err := pc.ReadFrom(buf)
		require.NoError(t, err)
		return string(buf[:n])
	}

	c.Count("session.login", 2, map[string]string{"role": "hod"})
	assert.Equal(t, "pulse.session.login:2|c|#role:hod", read())

	c.Gauge("session.authenticated", 1, nil)
	assert.Equal(t, "pulse.session.authenticated:1|g", read())

	c.Timing("session.login.duration", 1500*time.Microsecond, nil)
	assert.Equal(t, "pulse.session.login.duration:1.5|ms", read())

	require.NoError(t, c.Close())
	assert.False(t, c.Enabled())
	c.Count("after.close", 1, nil)
}
