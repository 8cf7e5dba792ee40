package natsadapter

import (
	"context"
	"encoding/json"
	"time"

	nats "github.com/nats-io/nats.go"
)

// AccountEventClient announces account lifecycle events to interested
// services. Publishing is best-effort; the caller decides whether to ignore
// failures.
type AccountEventClient interface {
	AccountCreated(ctx context.Context, accountID, email, source string) error
}

type accountEventClient struct {
	conn    *nats.Conn
	subject string
}

func NewAccountEventClient(conn *nats.Conn, subject string) AccountEventClient {
	return &accountEventClient{conn: conn, subject: subject}
}

func (c *accountEventClient) AccountCreated(ctx context.Context, accountID, email, source string) error {
	payload := map[string]interface{}{"id": accountID, "email": email, "source": source}
	data, _ := json.Marshal(payload)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.conn.PublishMsg(&nats.Msg{Subject: c.subject, Data: data}); err != nil {
		return err
	}
	return c.conn.FlushWithContext(ctx)
}
