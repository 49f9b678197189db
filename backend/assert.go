package backend

import "github.com/glyphatlas/glyphatlas/render"

// Compile-time checks that both sinks still satisfy render.Backend; a
// method-name or signature drift here should fail the build, not just the
// wiring in cmd/glyphatlasdemo.
var (
	_ render.Backend = (*GPU)(nil)
	_ render.Backend = (*Image)(nil)
)
