// Package capture defines the input-adapter boundary shared by the two
// kiosk front-ends: the camera decode collaborator and the fixed-input
// barcode reader. The scanning engine is written against Adapter only.
package capture

import "context"

// DecodedFunc receives one decoded text payload per scan.
type DecodedFunc func(text string)

type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Adapter is implemented by every capture front-end. Start must not block;
// decoded payloads arrive on onDecoded until Stop or ctx cancellation.
// Failures surface as the typed errors in internal/status
// (ErrPermissionDenied, ErrDeviceBusy, ErrNoDevice).
type Adapter interface {
	Devices() ([]Device, error)
	Start(ctx context.Context, onDecoded DecodedFunc) error
	Stop() error
}
