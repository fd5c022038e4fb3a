package namecolor

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhwmods/namecolor/address"
	"github.com/mhwmods/namecolor/config"
	"github.com/mhwmods/namecolor/logger"
)

const testCatalog = `
symbols:
  player.ClonePlayerShortInfo:
    pattern: "48 89 5C 24 08 57"
  player.CurrentPlayer:
    pattern: "48 8B 0D ?? ?? ?? ?? 48 85 C9"
    offset: 3
    rel32: true
player:
  base: player.CurrentPlayer
  name_offset: 0x10
`

type fakeInstaller struct {
	err error

	mu      sync.Mutex
	calls   int
	target  uintptr
	handler Handler
}

func (f *fakeInstaller) Install(target uintptr, newHandler func(Original) Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.target = target
	if f.err != nil {
		return f.err
	}

	original, _ := fakeOriginal(42)
	f.handler = newHandler(original)
	return nil
}

// testGame is a stand-in for the game image: a function matching the first
// signature at the base, and an instruction loading the static player
// pointer at base+48, which points at a player named Hunter.
type testGame struct {
	image  []byte
	player []byte
}

func newTestGame() *testGame {
	g := &testGame{
		image:  heapSlice[byte](64),
		player: heapSlice[byte](0x40),
	}
	for i := range g.image {
		g.image[i] = 0xcc
	}
	copy(g.image, []byte{0x48, 0x89, 0x5c, 0x24, 0x08, 0x57, 0x48, 0x83, 0xec, 0x20})
	copy(g.image[16:], []byte{0x48, 0x8b, 0x0d, 0x19, 0x00, 0x00, 0x00, 0x48, 0x85, 0xc9})
	*(*uintptr)(unsafe.Pointer(&g.image[48])) = addressOf(g.player)

	copy(g.player[0x10:], "Hunter\x00")
	return g
}

func (g *testGame) base() uintptr {
	return addressOf(g.image)
}

func (g *testGame) memory() (address.Memory, error) {
	return address.Regions{{Base: g.base(), Data: g.image}}, nil
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func newTestPlugin(t *testing.T, color string, installer Installer) (*Plugin, *testGame, func() string) {
	t.Helper()
	dir := t.TempDir()
	g := newTestGame()

	opts := Options{
		ConfigPath:  filepath.Join(dir, "config.txt"),
		CatalogPath: writeFile(t, dir, "addresses.yaml", testCatalog),
		Memory:      g.memory,
		Installer:   installer,
	}
	if color != "" {
		writeFile(t, dir, "config.txt", color+"\n")
	}

	log, out := newTestLogger()
	opts.Log = log
	return New(opts), g, out.String
}

func TestPluginAttach(t *testing.T) {
	installer := &fakeInstaller{}
	p, g, logged := newTestPlugin(t, "purple", installer)

	p.Attach()
	require.True(t, p.Active(), logged())
	assert.Equal(t, 1, installer.calls)
	assert.Equal(t, g.base(), installer.target)
	assert.Contains(t, logged(), "Config loaded: purple")
	assert.Contains(t, logged(), "Hooked player.ClonePlayerShortInfo")

	subject := newSubject("Hunter")
	result := heapSlice[byte](0x100)
	assert.Equal(t, int64(42), installer.handler(addressOf(subject), addressOf(result)))
	assert.Equal(t, byte(config.Purple.Code()), result[colorOffset])

	subject = newSubject("Palico")
	result = heapSlice[byte](0x100)
	assert.Equal(t, int64(42), installer.handler(addressOf(subject), addressOf(result)))
	assert.Equal(t, byte(gameColor), result[colorOffset])
}

func TestPluginAttach_FollowsLocalPlayer(t *testing.T) {
	installer := &fakeInstaller{}
	p, g, _ := newTestPlugin(t, "2", installer)
	p.Attach()
	require.True(t, p.Active())

	// Another player takes over the slot, as after joining a session.
	copy(g.player[0x10:], "Palico\x00")

	subject := newSubject("Palico")
	result := heapSlice[byte](0x100)
	installer.handler(addressOf(subject), addressOf(result))
	assert.Equal(t, byte(config.Orange.Code()), result[colorOffset])
}

func TestPluginAttach_Default(t *testing.T) {
	installer := &fakeInstaller{}
	p, _, _ := newTestPlugin(t, "rainbow", installer)
	p.Attach()
	require.True(t, p.Active())

	subject := newSubject("Hunter")
	result := heapSlice[byte](0x100)
	installer.handler(addressOf(subject), addressOf(result))
	assert.Equal(t, byte(gameColor), result[colorOffset])
}

func TestPluginAttach_Once(t *testing.T) {
	installer := &fakeInstaller{}
	p, _, _ := newTestPlugin(t, "green", installer)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Attach()
		}()
	}
	wg.Wait()
	p.Attach()

	assert.True(t, p.Active())
	assert.Equal(t, 1, installer.calls)
}

func TestPluginAttach_MissingConfig(t *testing.T) {
	installer := &fakeInstaller{}
	p, _, logged := newTestPlugin(t, "", installer)

	p.Attach()
	assert.False(t, p.Active())
	assert.Zero(t, installer.calls)
	assert.Contains(t, logged(), "ERROR failed to load config")

	// The failure sticks, a second attach does not retry.
	p.Attach()
	assert.Zero(t, installer.calls)
}

func TestPluginAttach_Failures(t *testing.T) {
	t.Run("catalog", func(t *testing.T) {
		installer := &fakeInstaller{}
		p, _, _ := newTestPlugin(t, "green", installer)
		p.opts.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")

		p.Attach()
		assert.False(t, p.Active())
		assert.Zero(t, installer.calls)
	})

	t.Run("memory", func(t *testing.T) {
		installer := &fakeInstaller{}
		p, _, logged := newTestPlugin(t, "green", installer)
		p.opts.Memory = func() (address.Memory, error) { return nil, errors.New("no image") }

		p.Attach()
		assert.False(t, p.Active())
		assert.Zero(t, installer.calls)
		assert.Contains(t, logged(), "no image")
	})

	t.Run("signature", func(t *testing.T) {
		installer := &fakeInstaller{}
		p, g, logged := newTestPlugin(t, "green", installer)
		g.image[0] = 0x90

		p.Attach()
		assert.False(t, p.Active())
		assert.Zero(t, installer.calls)
		assert.Contains(t, logged(), "failed to resolve target")
	})

	t.Run("install", func(t *testing.T) {
		installer := &fakeInstaller{err: errors.New("busy")}
		p, _, logged := newTestPlugin(t, "green", installer)

		p.Attach()
		assert.False(t, p.Active())
		assert.Equal(t, 1, installer.calls)
		assert.Contains(t, logged(), "failed to hook player.ClonePlayerShortInfo: busy")
	})
}

func TestPluginDetach(t *testing.T) {
	p := New(Options{Log: logger.Discard()})
	assert.NotPanics(t, p.Detach)
	assert.False(t, p.Active())
}

func TestNewPlayers(t *testing.T) {
	c := &address.Catalog{Symbols: map[string]address.Symbol{
		"slot": {Pattern: "90"},
	}}
	repo := address.NewRepository(c, address.Regions{{Base: 0x1000, Data: []byte{0xcc, 0x90}}})

	players, err := newPlayers(repo, address.PlayerLayout{Base: "slot", Chain: []uint64{0x58, 0x10}, NameOffset: 0x49})
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x1001), players.Slot)
	assert.Equal(t, []uintptr{0x58, 0x10}, players.Chain)
	assert.Equal(t, uintptr(0x49), players.NameOffset)

	_, err = newPlayers(repo, address.PlayerLayout{})
	assert.Error(t, err)

	_, err = newPlayers(repo, address.PlayerLayout{Base: "other"})
	assert.ErrorIs(t, err, address.ErrUnknownSymbol)
}

func TestPluginDetach_ClosesLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "namecolor.log")
	p := New(Options{
		ConfigPath: filepath.Join(dir, "missing.txt"),
		LogPath:    logPath,
	})

	p.Attach()
	p.Detach()
	assert.Nil(t, p.closer)

	p.log.Infof("after detach")
	p.Detach()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ERROR failed to load config")
	assert.Contains(t, string(data), "DEBUG Detached")
	assert.NotContains(t, string(data), "after detach")
}
