/*
 * Copyright (c) ArtechDB, Inc.
 */

package ora

import "fmt"

// ConnError reports a failure to establish a session to an endpoint. It is
// never retried by this package; callers decide whether the surrounding
// check or phase can continue without the session.
type ConnError struct {
	Endpoint string
	Err      error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("cannot connect to %s: %s", e.Endpoint, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}
