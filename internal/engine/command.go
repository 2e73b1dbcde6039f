package engine

// Command carries one incoming order into an instrument loop. The engine
// sends the result back on Resp, which must be buffered so the loop never
// blocks on an abandoned caller.
type Command struct {
	Order *Order
	Resp  chan placeResponse
}

type placeResponse struct {
	Result *MatchResult
	Err    error
}
