package namecolor

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/mhwmods/namecolor/address"
	"github.com/mhwmods/namecolor/config"
	"github.com/mhwmods/namecolor/game"
	"github.com/mhwmods/namecolor/hook"
	"github.com/mhwmods/namecolor/logger"
)

// Name prefixes every log line.
const Name = "NameColor"

// Installer hooks target. newHandler receives the way to call the original
// function and returns the routine that replaces it; it is called exactly
// once, before any call can reach the replacement.
type Installer interface {
	Install(target uintptr, newHandler func(Original) Handler) error
}

type Options struct {
	ConfigPath  string
	CatalogPath string
	// LogPath is a file the log is appended to, besides the platform sink.
	// Empty means no file.
	LogPath string

	// Log replaces the logger opened on Attach.
	Log *logger.Logger
	// Memory returns the image searched for signatures. Defaults to the
	// game executable.
	Memory func() (address.Memory, error)
	// Installer defaults to an inline hook calling back into Go.
	Installer Installer
}

// Plugin is the lifecycle of the feature inside the game process.
type Plugin struct {
	opts   Options
	log    *logger.Logger
	closer io.Closer
	once   sync.Once
	active atomic.Bool
}

func New(opts Options) *Plugin {
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.DefaultPath
	}
	if opts.CatalogPath == "" {
		opts.CatalogPath = address.DefaultCatalogPath
	}
	if opts.Memory == nil {
		opts.Memory = address.MainModule
	}
	if opts.Installer == nil {
		opts.Installer = nativeInstaller{}
	}
	return &Plugin{opts: opts, log: opts.Log}
}

// Attach sets up the hook. Only the first call does anything, and failures
// are logged rather than returned: the game has no use for them and the
// feature simply stays off.
func (p *Plugin) Attach() {
	p.once.Do(func() {
		if p.log == nil {
			var err error
			p.log, p.closer, err = logger.Open(Name, p.opts.LogPath, logger.LevelDebug)
			if err != nil {
				p.log.Warnf("%v", err)
			}
		}

		err := p.start()
		if err != nil {
			p.log.Errorf("%v", err)
			return
		}
		p.active.Store(true)
	})
}

// Detach is called when the process unloads the plugin. The hook stays in
// place since the code it jumps to goes away with the process. The log file
// opened by Attach is closed.
func (p *Plugin) Detach() {
	p.log.Debugf("Detached")
	if p.closer == nil {
		return
	}
	err := p.closer.Close()
	if err != nil {
		p.log.Warnf("failed to close log: %v", err)
	}
	p.closer = nil
}

// Active reports whether the hook is installed.
func (p *Plugin) Active() bool {
	return p.active.Load()
}

func (p *Plugin) start() error {
	color, err := config.Load(p.opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config at %q: %w", p.opts.ConfigPath, err)
	}
	p.log.Infof("Config loaded: %s", color)

	catalog, err := address.LoadCatalog(p.opts.CatalogPath)
	if err != nil {
		return err
	}

	mem, err := p.opts.Memory()
	if err != nil {
		return err
	}
	resolver := address.NewRepository(catalog, mem)

	target, err := resolver.Resolve(address.ClonePlayerShortInfo)
	if err != nil {
		return fmt.Errorf("failed to resolve target: %w", err)
	}

	players, err := newPlayers(resolver, catalog.Player)
	if err != nil {
		return fmt.Errorf("failed to locate player: %w", err)
	}

	p.logPrologue(target)

	err = p.opts.Installer.Install(target, func(original Original) Handler {
		return NewInterceptor(original, color, players, p.log).Intercept
	})
	if err != nil {
		return fmt.Errorf("failed to hook %s: %w", address.ClonePlayerShortInfo, err)
	}

	p.log.Infof("Hooked %s at 0x%x", address.ClonePlayerShortInfo, target)
	return nil
}

func (p *Plugin) logPrologue(target uintptr) {
	code := hook.Prologue(target, 32)
	n, err := hook.Check(code)
	if err != nil {
		p.log.Debugf("Prologue check: %v", err)
		return
	}

	listing, err := hook.Disassemble(code[:n], target)
	if err == nil {
		p.log.Debugf("Displacing %d bytes:\n%s", n, listing)
	}
}

func newPlayers(resolver address.Resolver, layout address.PlayerLayout) (*game.Players, error) {
	if layout.Base == "" {
		return nil, errors.New("catalog has no player base")
	}

	slot, err := resolver.Resolve(layout.Base)
	if err != nil {
		return nil, err
	}

	chain := make([]uintptr, len(layout.Chain))
	for i, off := range layout.Chain {
		chain[i] = uintptr(off)
	}

	return &game.Players{
		Slot:       slot,
		Chain:      chain,
		NameOffset: uintptr(layout.NameOffset),
	}, nil
}
