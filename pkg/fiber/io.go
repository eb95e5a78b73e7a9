package fiber

// IOToken correlates a submitted I/O request with its completion.
type IOToken uint64

// IORequest is a fetch handed to the I/O provider.
type IORequest struct {
	Token IOToken
	URL   string
}

// IOCompletion reports the result of a previously submitted request.
type IOCompletion struct {
	Token IOToken
	Body  []byte
	Err   error
}

// IOProvider performs fetches without blocking the scheduler. Submit must
// return immediately; the provider reports results on its completion
// channel in whatever order they finish. The scheduler treats completions
// purely as events feeding the ready queue.
type IOProvider interface {
	Submit(req IORequest)
	Completions() <-chan IOCompletion
}
