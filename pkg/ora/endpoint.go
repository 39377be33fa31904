/*
 * Copyright (c) ArtechDB, Inc.
 */

package ora

import (
	"fmt"

	"github.com/pkg/errors"
)

// AuthMode selects how a session authenticates to the listener.
type AuthMode string

const (
	// AuthExternal uses OS (wallet/Kerberos) authentication, no credentials supplied.
	AuthExternal AuthMode = "external"
	// AuthUserPassword uses database username/password authentication.
	AuthUserPassword AuthMode = "password"
)

// Endpoint identifies one database service on one listener. It is immutable
// once constructed; every field needed for the chosen auth mode is validated
// at construction time so call sites never probe for missing values.
type Endpoint struct {
	Mode     AuthMode
	Host     string
	Port     int
	Service  string
	Username string
	Password string
}

// NewExternalAuth builds an endpoint that relies on OS authentication.
func NewExternalAuth(host string, port int, service string) (Endpoint, error) {
	if host == "" || service == "" {
		return Endpoint{}, errors.New("host and service are required for external authentication")
	}
	if port <= 0 {
		port = 1521
	}
	return Endpoint{
		Mode:    AuthExternal,
		Host:    host,
		Port:    port,
		Service: service,
	}, nil
}

// NewUserPassword builds an endpoint carrying database credentials.
func NewUserPassword(host string, port int, service, username, password string) (Endpoint, error) {
	if host == "" || service == "" || username == "" || password == "" {
		return Endpoint{}, errors.New(
			"host, service, username and password are required for username/password authentication")
	}
	if port <= 0 {
		port = 1521
	}
	return Endpoint{
		Mode:     AuthUserPassword,
		Host:     host,
		Port:     port,
		Service:  service,
		Username: username,
		Password: password,
	}, nil
}

// DSN returns the easy-connect string host:port/service.
func (e Endpoint) DSN() string {
	return fmt.Sprintf("%s:%d/%s", e.Host, e.Port, e.Service)
}

// ServiceEndpoint derives an endpoint for another service registered on the
// same listener with the same credentials. Used to reach a PDB's own service
// from its parent container's endpoint.
func (e Endpoint) ServiceEndpoint(service string) Endpoint {
	out := e
	out.Service = service
	return out
}

// TNSDescriptor returns the full connect descriptor for this endpoint,
// suitable for CREATE DATABASE LINK ... USING clauses where no pre-configured
// alias can be assumed.
func (e Endpoint) TNSDescriptor() string {
	return fmt.Sprintf(
		"(DESCRIPTION=(ADDRESS=(PROTOCOL=TCP)(HOST=%s)(PORT=%d))(CONNECT_DATA=(SERVICE_NAME=%s)))",
		e.Host, e.Port, e.Service)
}

// String renders the endpoint for logs, never including the password.
func (e Endpoint) String() string {
	if e.Mode == AuthUserPassword {
		return fmt.Sprintf("%s (user: %s)", e.DSN(), e.Username)
	}
	return fmt.Sprintf("%s (external auth)", e.DSN())
}
