// Package rpc decodes command envelopes, dispatches them to the static command
// registry and maps the outcome to the success or error envelope.
//
// Request:  {"id": any?, "method": string, "params": object?}
// Success:  {"id": any?, "result": any}
// Failure:  {"error": {"message": CODE, "data": {"req_uuid": string, "detail": any}}}
package rpc
