package view

import (
	"reflect"

	"github.com/traefik/yaegi/interp"

	"github.com/conneroisu/keystone/internal/outcome"
)

// Symbols exports the view API to interpreted code as package ks.
var Symbols = interp.Exports{
	ImportPath + "/ks": {
		"Scope":    reflect.ValueOf((*Scope)(nil)),
		"Request":  reflect.ValueOf((*Request)(nil)),
		"Response": reflect.ValueOf((*Response)(nil)),
		"Bindings": reflect.ValueOf((*Bindings)(nil)),
		"Outcome":  reflect.ValueOf((*outcome.Error)(nil)),

		"ErrResponded": reflect.ValueOf(&ErrResponded).Elem(),

		"Abort":    reflect.ValueOf(outcome.New),
		"Redirect": reflect.ValueOf(outcome.Redirect),

		"BadRequest":                   reflect.ValueOf(outcome.BadRequest),
		"Unauthorized":                 reflect.ValueOf(outcome.Unauthorized),
		"Forbidden":                    reflect.ValueOf(outcome.Forbidden),
		"NotFound":                     reflect.ValueOf(outcome.NotFound),
		"MethodNotAllowed":             reflect.ValueOf(outcome.MethodNotAllowed),
		"NotAcceptable":                reflect.ValueOf(outcome.NotAcceptable),
		"RequestTimeout":               reflect.ValueOf(outcome.RequestTimeout),
		"Conflict":                     reflect.ValueOf(outcome.Conflict),
		"Gone":                         reflect.ValueOf(outcome.Gone),
		"LengthRequired":               reflect.ValueOf(outcome.LengthRequired),
		"PreconditionFailed":           reflect.ValueOf(outcome.PreconditionFailed),
		"RequestEntityTooLarge":        reflect.ValueOf(outcome.RequestEntityTooLarge),
		"RequestURITooLarge":           reflect.ValueOf(outcome.RequestURITooLarge),
		"UnsupportedMediaType":         reflect.ValueOf(outcome.UnsupportedMediaType),
		"RequestedRangeNotSatisfiable": reflect.ValueOf(outcome.RequestedRangeNotSatisfiable),
		"ExpectationFailed":            reflect.ValueOf(outcome.ExpectationFailed),
		"ImATeapot":                    reflect.ValueOf(outcome.ImATeapot),
		"UnprocessableEntity":          reflect.ValueOf(outcome.UnprocessableEntity),
		"TooManyRequests":              reflect.ValueOf(outcome.TooManyRequests),
		"InternalServerError":          reflect.ValueOf(outcome.InternalServerError),
		"NotImplemented":               reflect.ValueOf(outcome.NotImplemented),
		"BadGateway":                   reflect.ValueOf(outcome.BadGateway),
		"ServiceUnavailable":           reflect.ValueOf(outcome.ServiceUnavailable),
		"GatewayTimeout":               reflect.ValueOf(outcome.GatewayTimeout),

		"MovedPermanently":  reflect.ValueOf(outcome.MovedPermanently),
		"Found":             reflect.ValueOf(outcome.Found),
		"SeeOther":          reflect.ValueOf(outcome.SeeOther),
		"NotModified":       reflect.ValueOf(outcome.NotModified),
		"UseProxy":          reflect.ValueOf(outcome.UseProxy),
		"TemporaryRedirect": reflect.ValueOf(outcome.TemporaryRedirect),
		"PermanentRedirect": reflect.ValueOf(outcome.PermanentRedirect),
	},
}
