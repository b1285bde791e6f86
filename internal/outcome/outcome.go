// Package outcome defines the HTTP outcomes a view may raise instead of
// rendering: redirects and client or server errors. An outcome travels as
// an ordinary Go error and is translated into a response by the server.
package outcome

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is an HTTP outcome. Code is the status code, Location is set for
// redirects and Allowed for 405 responses.
type Error struct {
	Code        int
	Description string
	Location    string
	Allowed     []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%d %s: %s", e.Code, e.Name(), e.Location)
	}

	return fmt.Sprintf("%d %s", e.Code, e.Name())
}

// Name returns the reason phrase for the status code.
func (e *Error) Name() string {
	if text := http.StatusText(e.Code); text != "" {
		return text
	}

	return "Unknown Error"
}

// IsRedirect reports whether the outcome redirects the client.
func (e *Error) IsRedirect() bool {
	return e.Code >= 300 && e.Code < 400 && e.Location != ""
}

// Header returns the headers the outcome contributes to the response.
func (e *Error) Header() http.Header {
	h := make(http.Header)
	if e.Location != "" {
		h.Set("Location", e.Location)
	}
	if len(e.Allowed) > 0 {
		h.Set("Allow", strings.Join(e.Allowed, ", "))
	}

	return h
}

// As extracts an outcome from err.
func As(err error) (*Error, bool) {
	var o *Error
	if errors.As(err, &o) {
		return o, true
	}

	return nil, false
}

// New returns an outcome for an arbitrary status code.
func New(code int, description string) *Error {
	if description == "" {
		description = defaultDescriptions[code]
	}

	return &Error{Code: code, Description: description}
}

// Redirect returns a 3xx outcome pointing at location.
func Redirect(code int, location string) *Error {
	return &Error{Code: code, Location: location}
}

var defaultDescriptions = map[int]string{
	http.StatusNotModified:                  "The resource has not been modified since the version the browser holds.",
	http.StatusBadRequest:                   "The browser (or proxy) sent a request that this server could not understand.",
	http.StatusUnauthorized:                 "The server could not verify that you are authorized to access the URL requested. You either supplied the wrong credentials (e.g. a bad password), or your browser doesn't understand how to supply the credentials required.",
	http.StatusForbidden:                    "You don't have the permission to access the requested resource. It is either read-protected or not readable by the server.",
	http.StatusNotFound:                     "The requested URL was not found on the server. If you entered the URL manually please check your spelling and try again.",
	http.StatusMethodNotAllowed:             "The method is not allowed for the requested URL.",
	http.StatusNotAcceptable:                "The resource identified by the request is only capable of generating response entities which have content characteristics not acceptable according to the accept headers sent in the request.",
	http.StatusRequestTimeout:               "The server closed the network connection because the browser didn't finish the request within the specified time.",
	http.StatusConflict:                     "A conflict happened while processing the request. The resource might have been modified while the request was being processed.",
	http.StatusGone:                         "The requested URL is no longer available on this server and there is no forwarding address. If you followed a link from a foreign page, please contact the author of this page.",
	http.StatusLengthRequired:               "A request with this method requires a valid Content-Length header.",
	http.StatusPreconditionFailed:           "The precondition on the request for the URL failed positive evaluation.",
	http.StatusRequestEntityTooLarge:        "The data value transmitted exceeds the capacity limit.",
	http.StatusRequestURITooLong:            "The length of the requested URL exceeds the capacity limit for this server. The request cannot be processed.",
	http.StatusUnsupportedMediaType:         "The server does not support the media type transmitted in the request.",
	http.StatusRequestedRangeNotSatisfiable: "The server cannot provide the requested range.",
	http.StatusExpectationFailed:            "The server could not meet the requirements of the Expect header.",
	http.StatusTeapot:                       "This server is a teapot, not a coffee machine",
	http.StatusUnprocessableEntity:          "The request was well-formed but was unable to be followed due to semantic errors.",
	http.StatusTooManyRequests:              "This user has exceeded an allotted request count. Try again later.",
	http.StatusInternalServerError:          "The server encountered an internal error and was unable to complete your request. Either the server is overloaded or there is an error in the application.",
	http.StatusNotImplemented:               "The server does not support the action requested by the browser.",
	http.StatusBadGateway:                   "The proxy server received an invalid response from an upstream server.",
	http.StatusServiceUnavailable:           "The server is temporarily unable to service your request due to maintenance downtime or capacity problems. Please try again later.",
	http.StatusGatewayTimeout:               "The connection to an upstream server timed out.",
}

func BadRequest() *Error                   { return New(http.StatusBadRequest, "") }
func Unauthorized() *Error                 { return New(http.StatusUnauthorized, "") }
func Forbidden() *Error                    { return New(http.StatusForbidden, "") }
func NotFound() *Error                     { return New(http.StatusNotFound, "") }
func NotAcceptable() *Error                { return New(http.StatusNotAcceptable, "") }
func RequestTimeout() *Error               { return New(http.StatusRequestTimeout, "") }
func Conflict() *Error                     { return New(http.StatusConflict, "") }
func Gone() *Error                         { return New(http.StatusGone, "") }
func LengthRequired() *Error               { return New(http.StatusLengthRequired, "") }
func PreconditionFailed() *Error           { return New(http.StatusPreconditionFailed, "") }
func RequestEntityTooLarge() *Error        { return New(http.StatusRequestEntityTooLarge, "") }
func RequestURITooLarge() *Error           { return New(http.StatusRequestURITooLong, "") }
func UnsupportedMediaType() *Error         { return New(http.StatusUnsupportedMediaType, "") }
func RequestedRangeNotSatisfiable() *Error { return New(http.StatusRequestedRangeNotSatisfiable, "") }
func ExpectationFailed() *Error            { return New(http.StatusExpectationFailed, "") }
func ImATeapot() *Error                    { return New(http.StatusTeapot, "") }
func UnprocessableEntity() *Error          { return New(http.StatusUnprocessableEntity, "") }
func TooManyRequests() *Error              { return New(http.StatusTooManyRequests, "") }
func InternalServerError() *Error          { return New(http.StatusInternalServerError, "") }
func NotImplemented() *Error               { return New(http.StatusNotImplemented, "") }
func BadGateway() *Error                   { return New(http.StatusBadGateway, "") }
func ServiceUnavailable() *Error           { return New(http.StatusServiceUnavailable, "") }
func GatewayTimeout() *Error               { return New(http.StatusGatewayTimeout, "") }

// MethodNotAllowed lists the methods the resource accepts.
func MethodNotAllowed(allowed ...string) *Error {
	e := New(http.StatusMethodNotAllowed, "")
	e.Allowed = allowed

	return e
}

// NotModified tells the client its cached copy is current. It carries no
// location and no body.
func NotModified() *Error { return New(http.StatusNotModified, "") }

func MovedPermanently(location string) *Error  { return Redirect(http.StatusMovedPermanently, location) }
func Found(location string) *Error             { return Redirect(http.StatusFound, location) }
func SeeOther(location string) *Error          { return Redirect(http.StatusSeeOther, location) }
func UseProxy(location string) *Error          { return Redirect(http.StatusUseProxy, location) }
func TemporaryRedirect(location string) *Error { return Redirect(http.StatusTemporaryRedirect, location) }
func PermanentRedirect(location string) *Error { return Redirect(http.StatusPermanentRedirect, location) }
