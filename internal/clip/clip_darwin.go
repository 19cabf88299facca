//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #include <stdlib.h>
// #import <Cocoa/Cocoa.h>
//
// long clipkeep_change_count() {
//     return (long)[[NSPasteboard generalPasteboard] changeCount];
// }
//
// // Newline-joined POSIX paths of file URLs on the pasteboard, or NULL.
// char *clipkeep_file_paths() {
//     @autoreleasepool {
//         NSArray *urls = [[NSPasteboard generalPasteboard]
//             readObjectsForClasses:@[[NSURL class]]
//             options:@{NSPasteboardURLReadingFileURLsOnlyKey: @YES}];
//         if (urls == nil || [urls count] == 0) return NULL;
//         NSMutableArray *paths = [NSMutableArray arrayWithCapacity:[urls count]];
//         for (NSURL *u in urls) { [paths addObject:[u path]]; }
//         return strdup([[paths componentsJoinedByString:@"\n"] UTF8String]);
//     }
// }
//
// void *clipkeep_rtf(int *n) {
//     @autoreleasepool {
//         NSData *d = [[NSPasteboard generalPasteboard] dataForType:NSPasteboardTypeRTF];
//         *n = 0;
//         if (d == nil || [d length] == 0) return NULL;
//         void *buf = malloc([d length]);
//         memcpy(buf, [d bytes], [d length]);
//         *n = (int)[d length];
//         return buf;
//     }
// }
//
// void clipkeep_write_file(const char *path) {
//     @autoreleasepool {
//         NSPasteboard *pb = [NSPasteboard generalPasteboard];
//         [pb clearContents];
//         NSURL *u = [NSURL fileURLWithPath:[NSString stringWithUTF8String:path]];
//         [pb writeObjects:@[u]];
//     }
// }
//
// void clipkeep_write_rich_text(const char *text, const void *rtf, int n) {
//     @autoreleasepool {
//         NSPasteboard *pb = [NSPasteboard generalPasteboard];
//         [pb clearContents];
//         [pb setString:[NSString stringWithUTF8String:text] forType:NSPasteboardTypeString];
//         [pb setData:[NSData dataWithBytes:rtf length:n] forType:NSPasteboardTypeRTF];
//     }
// }
import "C"

import (
	"log/slog"
	"strings"
	"unsafe"

	"golang.design/x/clipboard"
)

type darwinBackend struct{}

// New returns the macOS clipboard backend.
// clipboard.Init is called here rather than in init() so that CLI sub-commands
// that never construct a Backend don't log spurious warnings.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewMemory()
	}
	return &darwinBackend{}
}

func (b *darwinBackend) Name() string { return "macOS NSPasteboard" }

func (b *darwinBackend) ChangeToken() int64 { return int64(C.clipkeep_change_count()) }

func (b *darwinBackend) Read() (Payload, error) {
	var p Payload
	if cs := C.clipkeep_file_paths(); cs != nil {
		joined := C.GoString(cs)
		C.free(unsafe.Pointer(cs))
		if joined != "" {
			p.Files = strings.Split(joined, "\n")
		}
	}
	if img := clipboard.Read(clipboard.FmtImage); img != nil {
		p.Image = img
	}
	if text := clipboard.Read(clipboard.FmtText); text != nil {
		p.Text = string(text)
	}
	var n C.int
	if buf := C.clipkeep_rtf(&n); buf != nil {
		p.RichText = C.GoBytes(buf, n)
		C.free(buf)
	}
	return p, nil
}

func (b *darwinBackend) Write(p Payload) error {
	switch {
	case len(p.Files) > 0:
		cs := C.CString(p.Files[0])
		defer C.free(unsafe.Pointer(cs))
		C.clipkeep_write_file(cs)
	case len(p.Image) > 0:
		clipboard.Write(clipboard.FmtImage, p.Image)
	case len(p.RichText) > 0:
		cs := C.CString(p.Text)
		defer C.free(unsafe.Pointer(cs))
		rtf := C.CBytes(p.RichText)
		defer C.free(rtf)
		C.clipkeep_write_rich_text(cs, rtf, C.int(len(p.RichText)))
	default:
		clipboard.Write(clipboard.FmtText, []byte(p.Text))
	}
	return nil
}

func (b *darwinBackend) Close() {}
