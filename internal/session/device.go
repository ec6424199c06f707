package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"geostaff-client/internal/store"
)

var deviceMu sync.Mutex

// DeviceID returns the identifier of this installation, generating and
// persisting it on first use. It is an opaque tag, not a secret.
func DeviceID(kv store.KV) (string, error) {
	deviceMu.Lock()
	defer deviceMu.Unlock()

	id, err := kv.Get(store.KeyDeviceID)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("read device id: %w", err)
	}

	id = "device_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	if err := kv.Set(store.KeyDeviceID, id); err != nil {
		return "", fmt.Errorf("persist device id: %w", err)
	}
	return id, nil
}
