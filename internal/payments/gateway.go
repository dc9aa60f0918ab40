package payments

import "context"

// Gateway is the payment-gateway collaborator. The engine only records
// outcomes; capturing and refunding actual money happens elsewhere.
type Gateway interface {
	Capture(ctx context.Context, amountCents int64, method string) (transactionID string, err error)
	Refund(ctx context.Context, transactionID string, amountCents int64) error
}

// NullGateway accepts everything and returns no transaction id. Used when
// payments are recorded from outcomes obtained out of band.
type NullGateway struct{}

func (NullGateway) Capture(ctx context.Context, amountCents int64, method string) (string, error) {
	return "", nil
}

func (NullGateway) Refund(ctx context.Context, transactionID string, amountCents int64) error {
	return nil
}
