package application

// Outcome reports the result of a best-effort operation. Err has already been
// logged; callers on hook paths are free to drop the whole value.
type Outcome struct {
	Changed bool
	Err     error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// SendResult reports how a notification left the router.
type SendResult struct {
	Staged       bool
	FallbackUsed bool
	Err          error
}

// Delivered reports whether either tier accepted the notification.
func (r SendResult) Delivered() bool {
	return r.Staged || r.FallbackUsed
}
