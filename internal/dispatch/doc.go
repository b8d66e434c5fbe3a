// Package dispatch sends USSD codes to the device and turns whatever happens
// into exactly one domain.Outcome.
//
// Two strategies exist and one is picked when the Engine is built, from the
// platform's declared API level:
//
//   - callback (API >= 26): the code is issued with a response callback and
//     the caller waits, for at most the configured timeout, for the first of
//     response, failure, timeout or cancellation. Later events are dropped.
//   - dialer (older platforms): the code is handed to the native dialer as a
//     tel: URI. The result only acknowledges that the request was sent; the
//     carrier reply is shown by the device and never reaches the gateway.
package dispatch
