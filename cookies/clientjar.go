package cookies

import (
	"net/http"
	"net/url"
)

// ClientJar adapts a Jar to net/http.CookieJar so server-set cookies (the
// CSRF pair and the http-only token cookies) flow into the same store the
// TokenStore reads from. The client talks to a single API host, so domain
// and path scoping are not modeled.
type ClientJar struct {
	jar Jar
}

var _ http.CookieJar = (*ClientJar)(nil)

// NewClientJar wraps a Jar for use as an http.Client cookie jar.
func NewClientJar(jar Jar) *ClientJar {
	return &ClientJar{jar: jar}
}

func (c *ClientJar) SetCookies(u *url.URL, cs []*http.Cookie) {
	for _, ck := range cs {
		if ck.MaxAge < 0 || (ck.MaxAge == 0 && ck.Value == "") {
			c.jar.Delete(ck.Name)
			continue
		}
		c.jar.Set(ck.Name, ck.Value, ck.Expires)
	}
}

func (c *ClientJar) Cookies(u *url.URL) []*http.Cookie {
	names := c.jar.Names()
	out := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		value, ok := c.jar.Get(name)
		if !ok {
			continue
		}
		out = append(out, &http.Cookie{Name: name, Value: value})
	}
	return out
}
