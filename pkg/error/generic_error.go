package error

// GenericError is implemented by every typed error in this package so the
// REST layer can map failures to an HTTP status and machine-readable code.
type GenericError interface {
	error
	ErrCode() string
	StatusCode() int
}
