package netlink

import (
	"context"
	"net"
	"testing"
	"time"

	"sensornode/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe_ConnectedWhenAddressAccepts(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	p, err := NewProbe(ln.Addr().String(), time.Second, nil)
	require.NoError(t, err)

	assert.False(t, p.Connected(context.Background()), "not connected before join")
	require.NoError(t, p.Connect(context.Background(), models.Credentials{SSID: "lab"}))
	assert.True(t, p.Connected(context.Background()))

	require.NoError(t, p.Close())
	assert.False(t, p.Connected(context.Background()))
}

func TestProbe_DownWhenNothingListens(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	p, err := NewProbe(addr, 200*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, p.Connect(context.Background(), models.Credentials{SSID: "lab"}))
	assert.False(t, p.Connected(context.Background()))
}

func TestProbe_Validation(t *testing.T) {
	_, err := NewProbe("", 0, nil)
	require.Error(t, err)

	p, err := NewProbe("127.0.0.1:1", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultProbeTimeout, p.timeout)
	require.Error(t, p.Connect(context.Background(), models.Credentials{}))
}

func TestSim_ConnectAfter(t *testing.T) {
	s := NewSim(2)
	ctx := context.Background()

	assert.False(t, s.Connected(ctx), "not joined yet")
	require.NoError(t, s.Connect(ctx, models.Credentials{SSID: "x"}))
	assert.False(t, s.Connected(ctx))
	assert.False(t, s.Connected(ctx))
	assert.True(t, s.Connected(ctx))
}

func TestSim_Never(t *testing.T) {
	s := NewSim(-1)
	require.NoError(t, s.Connect(context.Background(), models.Credentials{}))
	for i := 0; i < 20; i++ {
		assert.False(t, s.Connected(context.Background()))
	}
}
