package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"

	spindleerrors "github.com/tessro/spindle/internal/errors"
	"github.com/tessro/spindle/internal/session"
)

// Subscribe opens the daemon's event stream. The channel is closed when the
// connection drops or ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context) (<-chan session.Event, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", spindleerrors.ErrDaemonUnreachable, err)
	}

	events := make(chan session.Event, 16)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		defer close(events)
		for {
			var e session.Event
			if err := conn.ReadJSON(&e); err != nil {
				if ctx.Err() == nil {
					c.logger.Debug("event stream closed", "err", err)
				}
				return
			}
			select {
			case events <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
