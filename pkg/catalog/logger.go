package catalog

// Logger defines the logging surface the client relies on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

// observe runs fn and logs a single diagnostic line when it fails. The error
// is returned unchanged. Every exported network operation goes through here
// exactly once; internal helpers never log.
func observe[T any](c *Client, op, target string, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err != nil {
		c.log.ErrorObj("catalog request failed", "catalog_error", map[string]any{
			"operation": op,
			"url":       target,
			"error":     err.Error(),
		})
	}
	return v, err
}
