package loadgen

// HandleEvents exposes dashboard event loop.
var HandleEvents = handleEvents
