package log

import "time"

// Logger is the sink for structured records from dropship components.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is a key-value pair attached to a record.
type Field struct {
	Key   string
	Value any
}

// Keys shared by sender and receiver records, so both ends of a transfer
// can be correlated by the same names.
const (
	KeyTransferID = "id"
	KeyName       = "name"
	KeyPath       = "path"
	KeyRemote     = "remote"
	KeyBytes      = "bytes"
	KeyError      = "error"
)

// Generic field constructors.
func String(key, value string) Field                 { return Field{Key: key, Value: value} }
func Int(key string, value int) Field                { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field          { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Err attaches err under KeyError.
func Err(err error) Field { return Field{Key: KeyError, Value: err} }

// TransferID tags a record with the receive it belongs to.
func TransferID(id string) Field { return String(KeyTransferID, id) }

// Path is a file path on the local disk.
func Path(p string) Field { return String(KeyPath, p) }

// Remote is the peer address, host:port.
func Remote(addr string) Field { return String(KeyRemote, addr) }

// Bytes is a payload byte count.
func Bytes(n uint64) Field { return Uint64(KeyBytes, n) }
