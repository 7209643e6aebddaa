package wgctl

import "grimm.is/wgfleet/internal/fleet"

// Fake is an in-memory Controller for tests. It records the operation
// sequence so callers can assert ordering (down before up, etc).
type Fake struct {
	Present  bool
	ShowText string

	Ops []string

	ExistsErr error
	UpErr     error
	DownErr   error
}

func (f *Fake) Exists(iface string) (bool, error) {
	f.Ops = append(f.Ops, "exists "+iface)
	if f.ExistsErr != nil {
		return false, f.ExistsErr
	}
	return f.Present, nil
}

func (f *Fake) Up(st *fleet.State) error {
	f.Ops = append(f.Ops, "up "+st.Server.Interface)
	if f.UpErr != nil {
		return f.UpErr
	}
	f.Present = true
	return nil
}

func (f *Fake) Down(iface string) error {
	f.Ops = append(f.Ops, "down "+iface)
	if f.DownErr != nil {
		return f.DownErr
	}
	f.Present = false
	return nil
}

func (f *Fake) Show(iface string) (string, error) {
	f.Ops = append(f.Ops, "show "+iface)
	if !f.Present {
		return "", nil
	}
	return f.ShowText, nil
}
