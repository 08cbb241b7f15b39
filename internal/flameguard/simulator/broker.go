package simulator

import (
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// StartBroker runs an embedded, unauthenticated MQTT broker on addr. The
// caller closes it.
func StartBroker(addr string) (*mochi.Server, error) {
	server := mochi.New(nil)

	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, err
	}

	tcp := listeners.NewTCP(listeners.Config{
		ID:      "flameguard-sim",
		Type:    "tcp",
		Address: addr,
	})
	if err := server.AddListener(tcp); err != nil {
		return nil, err
	}

	if err := server.Serve(); err != nil {
		return nil, err
	}
	return server, nil
}
