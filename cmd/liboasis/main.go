//go:build cgo

// liboasis is the C-ABI embedding surface. Built with
// -buildmode=c-shared it exposes the runtime to 3D engines and other
// native hosts: an opaque handle, a tick, input injection, framebuffer
// access and a synchronous command channel.
package main

/*
#include <stdint.h>
#include <stdlib.h>
typedef char* (*oasis_callback)(const char*);
static char* invoke_callback(oasis_callback cb, const char* arg) { return cb(arg); }
*/
import "C"

import (
	"sync"
	"time"
	"unsafe"

	"gitlab.com/tinyland/lab/oasis/pkg/input"
	"gitlab.com/tinyland/lab/oasis/pkg/shellos"
	"gitlab.com/tinyland/lab/oasis/pkg/softrender"
)

// instance pairs a runtime with its renderer and queued input.
type instance struct {
	rt     *shellos.Runtime
	render *softrender.Renderer
	queue  []input.Event
}

var (
	mu        sync.Mutex
	instances = map[C.int64_t]*instance{}
	nextID    C.int64_t = 1
)

//export oasis_create
func oasis_create(skin *C.char) C.int64_t {
	mu.Lock()
	defer mu.Unlock()
	render := softrender.New()
	inst := &instance{render: render}
	rt, err := shellos.New(shellos.Options{
		Renderer: render,
		Input:    inputQueue{inst},
		BootSkin: C.GoString(skin),
	})
	if err != nil {
		return 0
	}
	inst.rt = rt
	id := nextID
	nextID++
	instances[id] = inst
	return id
}

// inputQueue adapts the instance's queued events to the trait.
type inputQueue struct{ inst *instance }

func (q inputQueue) Poll() []input.Event {
	evs := q.inst.queue
	q.inst.queue = nil
	return evs
}

//export oasis_destroy
func oasis_destroy(handle C.int64_t) {
	mu.Lock()
	defer mu.Unlock()
	delete(instances, handle)
}

//export oasis_tick
func oasis_tick(handle C.int64_t, deltaMS C.int64_t) {
	mu.Lock()
	inst := instances[handle]
	mu.Unlock()
	if inst == nil {
		return
	}
	inst.rt.Tick(time.Duration(deltaMS) * time.Millisecond)
}

// Event kinds for oasis_send_input.
const (
	evButtonPress   = 0
	evButtonRelease = 1
	evCursorMove    = 2
	evPointerDown   = 3
	evPointerUp     = 4
	evWheel         = 5
)

//export oasis_send_input
func oasis_send_input(handle C.int64_t, kind, a, b, c C.int32_t) {
	mu.Lock()
	inst := instances[handle]
	mu.Unlock()
	if inst == nil {
		return
	}
	var ev input.Event
	switch kind {
	case evButtonPress:
		ev = input.ButtonPress{Button: input.Button(a)}
	case evButtonRelease:
		ev = input.ButtonRelease{Button: input.Button(a)}
	case evCursorMove:
		ev = input.CursorMove{X: int(a), Y: int(b)}
	case evPointerDown:
		ev = input.PointerDown{X: int(a), Y: int(b), Button: input.Button(c)}
	case evPointerUp:
		ev = input.PointerUp{X: int(a), Y: int(b), Button: input.Button(c)}
	case evWheel:
		ev = input.Wheel{DX: int(a), DY: int(b)}
	default:
		return
	}
	inst.queue = append(inst.queue, ev)
}

//export oasis_send_text
func oasis_send_text(handle C.int64_t, text *C.char) {
	mu.Lock()
	inst := instances[handle]
	mu.Unlock()
	if inst == nil {
		return
	}
	inst.queue = append(inst.queue, input.TextInput{Text: C.GoString(text)})
}

//export oasis_get_buffer
func oasis_get_buffer(handle C.int64_t, w, h, stride *C.int32_t) unsafe.Pointer {
	mu.Lock()
	inst := instances[handle]
	mu.Unlock()
	if inst == nil {
		return nil
	}
	frame := inst.render.Frame()
	*w = C.int32_t(frame.Rect.Dx())
	*h = C.int32_t(frame.Rect.Dy())
	*stride = C.int32_t(frame.Stride)
	return unsafe.Pointer(&frame.Pix[0])
}

//export oasis_send_command
func oasis_send_command(handle C.int64_t, line *C.char) *C.char {
	mu.Lock()
	inst := instances[handle]
	mu.Unlock()
	if inst == nil {
		return C.CString("")
	}
	return C.CString(inst.rt.Exec(C.GoString(line)))
}

//export oasis_free_string
func oasis_free_string(s *C.char) {
	C.free(unsafe.Pointer(s))
}

//export oasis_add_vfs_file
func oasis_add_vfs_file(handle C.int64_t, path *C.char, data unsafe.Pointer, size C.int64_t) C.int32_t {
	mu.Lock()
	inst := instances[handle]
	mu.Unlock()
	if inst == nil {
		return -1
	}
	buf := C.GoBytes(data, C.int(size))
	if err := inst.rt.FS().Write(C.GoString(path), buf); err != nil {
		return -1
	}
	return 0
}

//export oasis_register_callback
func oasis_register_callback(handle C.int64_t, kind *C.char, fn C.oasis_callback) {
	mu.Lock()
	inst := instances[handle]
	mu.Unlock()
	if inst == nil {
		return
	}
	inst.rt.RegisterCallback(C.GoString(kind), func(arg string) string {
		carg := C.CString(arg)
		defer C.free(unsafe.Pointer(carg))
		res := C.invoke_callback(fn, carg)
		if res == nil {
			return ""
		}
		defer C.free(unsafe.Pointer(res))
		return C.GoString(res)
	})
}

func main() {}
