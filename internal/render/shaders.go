package render

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// ElementProgram is the one GL program the canvas is drawn with. Element
// vertices are uploaded in world space, already coloured, so all it needs
// per frame is the camera.
type ElementProgram struct {
	id        uint32
	uViewProj int32
}

// Positions arrive in world space on the canvas plane; the camera's
// view-projection takes them to clip space.
const elementVertexSource = `
#version 330 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec4 aColor;

uniform mat4 uViewProj;

out vec4 vColor;

void main() {
    gl_Position = uViewProj * vec4(aPos, 1.0);
    vColor = aColor;
}
` + "\x00"

const elementFragmentSource = `
#version 330 core
in vec4 vColor;
out vec4 FragColor;

void main() {
    FragColor = vColor;
}
` + "\x00"

// NewElementProgram builds the program and makes it current. It requires a
// current GL context.
func NewElementProgram() (*ElementProgram, error) {
	vs, err := compileShader(elementVertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(elementFragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fs)

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		msg := infoLog(id, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("linking element program: %s", msg)
	}

	p := &ElementProgram{
		id:        id,
		uViewProj: gl.GetUniformLocation(id, gl.Str("uViewProj\x00")),
	}
	gl.UseProgram(id)
	return p, nil
}

// SetTransform uploads the camera's view-projection.
func (p *ElementProgram) SetTransform(matrix [16]float32) {
	gl.UniformMatrix4fv(p.uViewProj, 1, false, &matrix[0])
}

func compileShader(source string, kind uint32) (uint32, error) {
	shader := gl.CreateShader(kind)
	csource, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		msg := infoLog(shader, gl.GetShaderiv, gl.GetShaderInfoLog)
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compiling: %s", msg)
	}
	return shader, nil
}

// infoLog reads the driver's log for a shader or program.
func infoLog(
	id uint32,
	getiv func(uint32, uint32, *int32),
	getLog func(uint32, int32, *int32, *uint8),
) string {
	var length int32
	getiv(id, gl.INFO_LOG_LENGTH, &length)
	text := strings.Repeat("\x00", int(length+1))
	getLog(id, length, nil, gl.Str(text))
	return strings.TrimRight(text, "\x00")
}
