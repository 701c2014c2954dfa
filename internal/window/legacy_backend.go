package window

// NewLegacyBackend creates the fallback for window managers that speak
// neither EWMH nor a known controller protocol. It walks the whole tree
// (unless maxDepth limits it) and names windows by WM_NAME alone. It is
// always available, so the selection chain ends here.
func NewLegacyBackend(conn Conn, maxDepth int) *RawXBackend {
	if maxDepth == 0 {
		maxDepth = Unlimited
	}
	return &RawXBackend{
		conn:      conn,
		kind:      KindLegacy,
		maxDepth:  maxDepth,
		titleOnly: true,
		component: "legacy",
	}
}
