package consumer

import "context"

// Submitter accepts raw inbound device messages
type Submitter interface {
	Submit(ctx context.Context, payload []byte) error
}
