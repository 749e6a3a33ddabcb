// Package authmock serves an in-process mock of the authentication API.
//
// Services under test check the tokens they receive against the authentication
// service. Tests start this mock on a free port and point the service at URL().
//
//	+--------+---------------------------------+--------------------------------------+
//	| Method | Path                            | Behavior                             |
//	+--------+---------------------------------+--------------------------------------+
//	| HEAD   | /0.1/token/:token[?scope=acl]   | 204 valid, 403 wrong acl, 404 unknown|
//	| GET    | /0.1/token/:token[?scope=acl]   | {"data": token} or 403/404           |
//	| POST   | /0.1/token                      | basic auth, RS256 JWT, 401 if refused|
//	| GET    | /0.1/certs                      | JWKS of the signing key              |
//	| GET    | /0.1/users, /0.1/users/:uuid    | users created through the API        |
//	| POST   | /0.1/users                      | create a user                        |
//	+--------+---------------------------------+--------------------------------------+
//	| POST   | /_set_token                     | register a token document            |
//	| DELETE | /_remove_token/:token           | forget a token, 404 if unknown       |
//	| POST   | /_add_invalid_credentials       | refuse a username/password pair      |
//	| GET    | /_requests                      | requests received on /0.1 routes     |
//	| POST   | /_reset                         | back to the initial state            |
//	+--------+---------------------------------+--------------------------------------+
//
// The initial state accepts ValidToken, refuses WrongACLToken and refuses the
// credentials test/foobar. Requests are logged with ginzap and panics in handlers are
// recovered into 500 responses.
package authmock
