package bus

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

var log = slog.New(tint.NewHandler(os.Stderr, nil))

// Bus fans out small notifications between the nodes of one deployment.
// Delivery is best effort: a slow subscriber loses messages.
type Bus interface {
	Send(topic string, v []byte) error
	Subscribe(topic string) (Subscription, error)
	Close()
}

type Subscription interface {
	// Recv blocks until a message arrives, the subscription is closed or ctx ends.
	Recv(ctx context.Context) ([]byte, error)
	Close()
}

const subscriptionBuffer = 64

// Open returns a NATS bus when url is set and an in-process one otherwise.
// embedded://host:port starts a NATS server in this process.
func Open(url string) (Bus, error) {
	if url == "" {
		return NewSolo()
	}
	if addr, ok := strings.CutPrefix(url, "embedded://"); ok {
		e, err := NewEmbedded(addr)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	return NewNats(url)
}
