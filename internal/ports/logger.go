package ports

import "github.com/bft-labs/dropship/pkg/log"

// Logger is the structured logger used by the application layer.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Shared record keys.
const (
	KeyTransferID = log.KeyTransferID
	KeyName       = log.KeyName
	KeyPath       = log.KeyPath
	KeyRemote     = log.KeyRemote
	KeyBytes      = log.KeyBytes
)

// Field constructors re-exported for application code.
var (
	String     = log.String
	Int        = log.Int
	Uint64     = log.Uint64
	Duration   = log.Duration
	Err        = log.Err
	TransferID = log.TransferID
	Path       = log.Path
	Remote     = log.Remote
	Bytes      = log.Bytes
	With       = log.With
)
