package game

// ActorInfo describes an actor in the game.
type ActorInfo interface {
	Name() string
}

// Actors finds the actor controlled on this machine. It is queried on every
// call since the local player changes when joining or leaving sessions.
type Actors interface {
	CurrentActor() (ActorInfo, bool)
}

// Player is a snapshot of the local player.
type Player struct {
	Addr uintptr
	name string
}

func (p Player) Name() string {
	return p.name
}

// Players locates the local player by following a pointer chain.
//
// Slot is the address of a static pointer. It is dereferenced, then each
// offset in Chain is added and the result dereferenced again. The name is
// read at NameOffset from the final address.
type Players struct {
	Slot       uintptr
	Chain      []uintptr
	NameOffset uintptr
}

// CurrentActor returns the local player, or false when there is none, such as
// on the title screen, or when any link of the chain can't be read.
func (p *Players) CurrentActor() (ActorInfo, bool) {
	addr, err := ReadPointer(p.Slot)
	if err != nil || addr == 0 {
		return nil, false
	}

	for _, off := range p.Chain {
		addr, err = ReadPointer(addr + off)
		if err != nil || addr == 0 {
			return nil, false
		}
	}

	name, err := ReadCString(addr+p.NameOffset, MaxNameLength)
	if err != nil || name == "" {
		return nil, false
	}

	return Player{Addr: addr, name: name}, true
}
