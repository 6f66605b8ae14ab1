package transport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gortps/rtps/internal/wire"
)

func TestMemoryBusDeliversToAddressedListener(t *testing.T) {
	bus := NewMemoryBus()
	a := wire.LocatorFromUDPv4(127, 0, 0, 1, 1)
	b := wire.LocatorFromUDPv4(127, 0, 0, 1, 2)

	ea := bus.Listen(a)
	eb := bus.Listen(b)
	defer ea.Close()
	defer eb.Close()

	require.NoError(t, ea.Write([]byte("hello"), []wire.Locator{b}))

	src, datagram, ok, err := eb.Read()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, a, src)
	require.Equal(t, []byte("hello"), datagram)

	_, _, ok, _ = ea.Read()
	require.False(t, ok)
}

func TestMemoryBusSkipsClosedListener(t *testing.T) {
	bus := NewMemoryBus()
	a := wire.LocatorFromUDPv4(127, 0, 0, 1, 1)
	b := wire.LocatorFromUDPv4(127, 0, 0, 1, 2)

	ea := bus.Listen(a)
	eb := bus.Listen(b)
	require.NoError(t, eb.Close())

	require.NoError(t, ea.Write([]byte("x"), []wire.Locator{b}))
	_, _, ok, _ := eb.Read()
	require.False(t, ok)
}
