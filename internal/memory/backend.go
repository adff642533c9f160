package memory

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Backend owns the actual vertex buffers. Offsets and sizes are in floats.
type Backend interface {
	CreateBuffer(floats int) (uint32, error)
	Upload(buffer uint32, offset int, data []float32)
	Read(buffer uint32, offset int, data []float32)
	DeleteBuffer(buffer uint32)
	// Draw issues one multi-draw of triangle ranges, in vertices.
	Draw(buffer uint32, firsts, counts []int32)
}

// GLBackend stores buffers as OpenGL VBOs, each with its own VAO. It must
// only be used on the goroutine holding the GL context.
type GLBackend struct {
	vaos map[uint32]uint32
}

var _ Backend = (*GLBackend)(nil)

func NewGLBackend() *GLBackend {
	return &GLBackend{vaos: make(map[uint32]uint32)}
}

func (g *GLBackend) CreateBuffer(floats int) (uint32, error) {
	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	if vao == 0 || vbo == 0 {
		return 0, fmt.Errorf("failed to generate vertex buffer (vao=%d, vbo=%d)", vao, vbo)
	}

	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, floats*4, nil, gl.DYNAMIC_DRAW)

	stride := int32(FloatsPerVertex * 4)
	// - Attribute 0: position (vec3)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	// - Attribute 1: colour (vec4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, stride, gl.PtrOffset(12))

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	g.vaos[vbo] = vao
	return vbo, nil
}

func (g *GLBackend) Upload(buffer uint32, offset int, data []float32) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	gl.BufferSubData(gl.ARRAY_BUFFER, offset*4, len(data)*4, gl.Ptr(data))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// Read copies buffer contents back to the CPU. glCopyBufferSubData would
// avoid the round trip but is unavailable on OpenGL 4.1.
func (g *GLBackend) Read(buffer uint32, offset int, data []float32) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	gl.GetBufferSubData(gl.ARRAY_BUFFER, offset*4, len(data)*4, gl.Ptr(data))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (g *GLBackend) DeleteBuffer(buffer uint32) {
	if vao, ok := g.vaos[buffer]; ok {
		gl.DeleteVertexArrays(1, &vao)
		delete(g.vaos, buffer)
	}
	gl.DeleteBuffers(1, &buffer)
}

func (g *GLBackend) Draw(buffer uint32, firsts, counts []int32) {
	if len(firsts) == 0 {
		return
	}
	gl.BindVertexArray(g.vaos[buffer])
	gl.MultiDrawArrays(gl.TRIANGLES, &firsts[0], &counts[0], int32(len(firsts)))
	gl.BindVertexArray(0)
}
