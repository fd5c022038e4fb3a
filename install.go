package namecolor

import "errors"

type switchable interface {
	Enable() error
	Remove() error
}

// enable turns the hook on, or takes it out again if that fails.
func enable(h switchable) error {
	err := h.Enable()
	if err != nil {
		return errors.Join(err, h.Remove())
	}
	return nil
}
