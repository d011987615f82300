// Package fetch downloads the file behind a URL into a temporary file and
// works out a sensible filename for it from the response headers, the URL
// path, and finally the payload itself.
package fetch
