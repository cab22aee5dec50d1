/*
Package identitysdk is the Go client for the gatehouse identity service.

A Client covers the public endpoints: issuing, introspecting, refreshing and
revoking tokens, and self registration. A Session wraps an issued token and
calls the bearer protected user, role and permission endpoints on its behalf.

	c := identitysdk.NewClient("http://identity:8080")

	sess, err := c.Login(ctx, "alice", "correct-horse")
	if err != nil {
		return err
	}
	defer sess.Logout(ctx)

	me, err := sess.MyInfo(ctx)

The gateway uses Introspect on every protected request:

	res, err := c.Introspect(ctx, token)
	if err != nil || !res.Valid {
		// reject
	}

Every failure reported by the service surfaces as *APIError carrying the
numeric code from the response envelope.
*/
package identitysdk
