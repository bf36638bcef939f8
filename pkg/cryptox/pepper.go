package cryptox

import (
	"log/slog"
	"sync"
)

const pepperSize = SecretSize256

var (
	pepperMu sync.Mutex
	pepper   string
)

// LoadPepper reads the pepper from path, creating the file on first boot.
// Every replica must see the same file or hashes will not verify across
// them.
func LoadPepper(path string) error {
	p, err := LoadOrGenerateSecretFile(path, pepperSize)
	if err != nil {
		return err
	}
	SetPepper(p)
	return nil
}

// SetPepper pins the pepper value directly.
func SetPepper(value string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	pepper = value
}

func currentPepper() string {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	if pepper == "" {
		// Hashes made with this pepper die with the process.
		slog.Warn("no pepper loaded, using an ephemeral pepper")
		pepper = MustRandomSecret(pepperSize)
	}
	return pepper
}
