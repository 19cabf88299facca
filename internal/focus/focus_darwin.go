//go:build darwin

package focus

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #include <stdlib.h>
// #import <Cocoa/Cocoa.h>
//
// char *clipkeep_frontmost_bundle_id() {
//     @autoreleasepool {
//         NSString *id = [[[NSWorkspace sharedWorkspace] frontmostApplication] bundleIdentifier];
//         if (id == nil) return NULL;
//         return strdup([id UTF8String]);
//     }
// }
import "C"

import (
	"context"
	"unsafe"
)

type workspaceResolver struct{}

// New returns the NSWorkspace frontmost-application resolver.
func New() Resolver { return workspaceResolver{} }

func (workspaceResolver) CurrentApplicationID(context.Context) (string, bool) {
	cs := C.clipkeep_frontmost_bundle_id()
	if cs == nil {
		return "", false
	}
	defer C.free(unsafe.Pointer(cs))
	id := C.GoString(cs)
	return id, id != ""
}
