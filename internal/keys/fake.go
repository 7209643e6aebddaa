package keys

import "fmt"

// Fake is a deterministic KeySource for tests. Keys are sequential opaque
// strings, which is all the core ever requires of them.
type Fake struct {
	n int

	// FailKeypair and FailPSK force the next call to error.
	FailKeypair error
	FailPSK     error
}

func (f *Fake) Keypair() (string, string, error) {
	if f.FailKeypair != nil {
		return "", "", f.FailKeypair
	}
	f.n++
	return fmt.Sprintf("PRIV%03d=", f.n), fmt.Sprintf("PUB%03d=", f.n), nil
}

func (f *Fake) PresharedKey() (string, error) {
	if f.FailPSK != nil {
		return "", f.FailPSK
	}
	f.n++
	return fmt.Sprintf("PSK%03d=", f.n), nil
}
