/*
 * Copyright (c) ArtechDB, Inc.
 */

package ora

import "context"

// WithSession connects to ep, runs fn, and closes the session on every exit
// path. Every check and phase in this repository acquires its connections
// through this helper so no session can leak past its scope.
func WithSession(ctx context.Context, c Connector, ep Endpoint, fn func(Session) error) error {
	s, err := c.Connect(ctx, ep)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
