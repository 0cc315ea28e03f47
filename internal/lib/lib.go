// Package lib acts as a library for modules that do not fit
// strictly into other layers.
//
// It contains background job processing (Redis/Asynq), the
// e-mail client (Resend) and the push/SMS notification gateway.
package lib
