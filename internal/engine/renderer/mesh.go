package renderer

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/splatview/internal/engine/shader"
	"github.com/Faultbox/splatview/internal/logger"
	"github.com/Faultbox/splatview/internal/pointcloud"
)

// ErrReleased is returned when closing a mesh twice.
var ErrReleased = errors.New("renderer: mesh already released")

// Mesh is a point cloud uploaded into a VAO/VBO pair.
type Mesh struct {
	vao   uint32
	vbo   uint32
	count int
	mode  pointcloud.Mode
}

// Upload copies cloud into GPU memory as interleaved position, normal,
// color attributes.
func Upload(cloud *pointcloud.Cloud) (*Mesh, error) {
	if err := cloud.Validate(); err != nil {
		return nil, err
	}
	if cloud.Empty() {
		return nil, fmt.Errorf("renderer: cloud %q is empty", cloud.Name)
	}
	vertices := cloud.Interleave()
	m := &Mesh{count: cloud.Len(), mode: cloud.Mode}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	stride := int32(pointcloud.Stride * 4)
	gl.VertexAttribPointerWithOffset(shader.AttribPosition, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(shader.AttribPosition)
	gl.VertexAttribPointerWithOffset(shader.AttribNormal, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(shader.AttribNormal)
	gl.VertexAttribPointerWithOffset(shader.AttribColor, 3, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(shader.AttribColor)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	logger.Debug("point cloud uploaded",
		zap.String("name", cloud.Name),
		zap.Int("vertices", m.count),
		zap.Uint32("vao", m.vao),
	)
	return m, nil
}

// Mode returns the primitive mode.
func (m *Mesh) Mode() pointcloud.Mode { return m.mode }

// Count returns the vertex count.
func (m *Mesh) Count() int { return m.count }

// Close releases the GPU buffers.
func (m *Mesh) Close() error {
	if m.vao == 0 {
		return ErrReleased
	}
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	m.vao, m.vbo = 0, 0
	return nil
}

func (m *Mesh) glMode() uint32 {
	if m.mode == pointcloud.Triangles {
		return gl.TRIANGLES
	}
	return gl.POINTS
}
