// Package helper binds the OS-specific capabilities to external helper
// executables. Each capability is a configured argv; the adapter appends a
// subcommand or writes a JSON request on stdin and reads JSON (or PNG for
// captures) from stdout.
//
// Contract:
//
//	windows_cmd windows        -> JSON array of domain.WindowInfo
//	windows_cmd displays       -> JSON array of domain.Display
//	windows_cmd activations    -> one application identity per line, streamed
//	capture_cmd <window-id>    -> PNG image
//	accessibility_cmd          <- JSON Request, -> JSON Response
//	ocr_cmd                    <- PNG image,    -> JSON Response
//	device_cmd                 -> JSON domain.DeviceState
//
// An empty argv disables the capability.
package helper
