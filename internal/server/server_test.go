package server

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"

	"github.com/jmylchreest/homepage/internal/config"
	"github.com/jmylchreest/homepage/internal/geo"
	"github.com/jmylchreest/homepage/internal/store"
)

func TestLimiter_BurstThenRefill(t *testing.T) {
	l := NewLimiter(60, 3)
	now := time.Unix(1700000000, 0)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("1.2.3.4", now), "request %d", i)
	}
	assert.False(t, l.Allow("1.2.3.4", now))
	assert.True(t, l.Allow("5.6.7.8", now), "buckets are per key")

	assert.False(t, l.Allow("1.2.3.4", now.Add(500*time.Millisecond)))
	assert.True(t, l.Allow("1.2.3.4", now.Add(time.Second)))
}

func TestLimiter_RefillCapsAtBurst(t *testing.T) {
	l := NewLimiter(60, 2)
	now := time.Unix(1700000000, 0)

	require.True(t, l.Allow("a", now))
	later := now.Add(time.Hour)
	assert.True(t, l.Allow("a", later))
	assert.True(t, l.Allow("a", later))
	assert.False(t, l.Allow("a", later))
}

func TestLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0)
	now := time.Unix(1700000000, 0)

	allowed := 0
	for i := 0; i < DefaultBurst+5; i++ {
		if l.Allow("a", now) {
			allowed++
		}
	}
	assert.Equal(t, DefaultBurst, allowed)
}

func TestLimiter_PrunesIdleBuckets(t *testing.T) {
	l := NewLimiter(60, 1)
	now := time.Unix(1700000000, 0)

	for i := 0; i <= pruneThreshold; i++ {
		l.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256), now)
	}
	require.Equal(t, pruneThreshold+1, l.Len())

	l.Allow("fresh", now.Add(time.Minute))
	assert.Equal(t, 1, l.Len())
}

func TestVisitorID(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := gossh.NewPublicKey(pub)
	require.NoError(t, err)

	addr := &net.TCPAddr{IP: net.ParseIP("203.0.113.7"), Port: 51234}

	byKey := visitorID(key, addr)
	assert.True(t, strings.HasPrefix(byKey, "key:SHA256:"))
	assert.Equal(t, byKey, visitorID(key, &net.TCPAddr{IP: net.ParseIP("198.51.100.1"), Port: 1}),
		"same key, same bucket")

	assert.Equal(t, "ip:203.0.113.7", visitorID(nil, addr))
	assert.Equal(t, "ip:unknown", visitorID(nil, nil))
}

func TestRemoteIP(t *testing.T) {
	assert.Equal(t, "::1", remoteIP(&net.TCPAddr{IP: net.IPv6loopback, Port: 22}))
	assert.Equal(t, "unknown", remoteIP(nil))
}

func TestGeolocatable(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"203.0.113.7", true},
		{"2001:4860:4860::8888", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"192.168.0.10", false},
		{"169.254.1.1", false},
		{"0.0.0.0", false},
		{"unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, geolocatable(tt.ip))
		})
	}
}

func TestRuntime_Preferences(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.HostKeyPath = filepath.Join(t.TempDir(), "keys", "host_ed25519")

	ephemeral, err := New(cfg, Deps{})
	require.NoError(t, err)
	_, isMemory := ephemeral.preferences("ip:1.2.3.4").(*store.MemoryStore)
	assert.True(t, isMemory)
	assert.Nil(t, ephemeral.geolocator("203.0.113.7"))

	fs, err := store.OpenFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	persistent, err := New(cfg, Deps{Store: fs, Geo: geo.NewClient(geo.Options{})})
	require.NoError(t, err)

	prefs := persistent.preferences("ip:1.2.3.4")
	require.NoError(t, prefs.Set(store.KeyTheme, "dark"))
	assert.Contains(t, fs.Buckets(), "ip:1.2.3.4")

	assert.NotNil(t, persistent.geolocator("203.0.113.7"))
	assert.Nil(t, persistent.geolocator("127.0.0.1"))
}

func TestNew_Address(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 2323
	cfg.Server.HostKeyPath = filepath.Join(t.TempDir(), "host_ed25519")

	r, err := New(cfg, Deps{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:2323", r.Address())
	assert.FileExists(t, cfg.Server.HostKeyPath)
}
