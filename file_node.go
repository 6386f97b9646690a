package playa

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileNode reads a numbered frame sequence or video file. It has no inputs.
type FileNode struct {
	nodeBase
}

// NewFileNode creates a FileNode with default attributes bound to mask.
func NewFileNode(name, mask string) *FileNode {
	n := &FileNode{nodeBase: newNodeBase(name, KindFile)}
	a := n.attr
	a.SetStr("file_mask", mask)
	a.SetInt("file_start", 1)
	a.SetInt("file_end", 1)
	a.SetInt("in", 0)
	a.SetInt("out", 0)
	a.SetInt("trim_in", 0)
	a.SetInt("trim_out", 0)
	a.SetFloat("fps", 24)
	a.SetInt("frame", 0)
	a.SetInt("width", 0)
	a.SetInt("height", 0)
	a.SetInt("padding", 4)
	a.ClearDirty()
	return n
}

func (n *FileNode) Inputs() []uuid.UUID { return nil }

func (n *FileNode) workArea() (start, end int) {
	in, _ := n.attr.GetInt("in")
	out, _ := n.attr.GetInt("out")
	trimIn, _ := n.attr.GetInt("trim_in")
	trimOut, _ := n.attr.GetInt("trim_out")
	return int(in + trimIn), int(out - trimOut)
}

// Compute implements spec §4.3.1.
func (n *FileNode) Compute(frameIdx int, ctx *ComputeContext) (*Frame, error) {
	fileStart, _ := n.attr.GetInt("file_start")
	fileEnd, _ := n.attr.GetInt("file_end")
	frameCount := fileEnd - fileStart + 1
	if frameCount <= 0 {
		return nil, nil
	}

	in, _ := n.attr.GetInt("in")
	start, end := n.workArea()
	if frameIdx < start || frameIdx > end {
		return NewSizedPlaceholderFrame(placeholderDims(n)), nil
	}

	if cached, ok := ctx.Cache.Get(n.id, frameIdx); ok {
		return cached, nil
	}

	localIdx := int64(frameIdx) - in
	seq := fileStart + localIdx

	mask, _ := n.attr.GetStr("file_mask")
	padding, _ := n.attr.GetInt("padding")
	path := ResolvePath(mask, int(seq), int(padding))

	frame := NewUnloadedFrame(path)
	ctx.Cache.Insert(n.id, frameIdx, frame)
	return frame, nil
}

// placeholderDims is a helper so out-of-range placeholders still report the
// node's declared width/height when known.
func placeholderDims(n *FileNode) (int, int) {
	w, _ := n.attr.GetInt("width")
	h, _ := n.attr.GetInt("height")
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return int(w), int(h)
}

func (n *FileNode) Preload(center, radius int, ctx *ComputeContext) {
	start, end := n.workArea()
	for off := 0; off <= radius; off++ {
		for _, idx := range []int{center - off, center + off} {
			if idx < start || idx > end {
				continue
			}
			if _, ok := ctx.Cache.Get(n.id, idx); ok {
				continue
			}
			idxCopy := idx
			if ctx.Workers != nil {
				ctx.Workers.ExecuteWithEpoch(ctx.Epoch, func() {
					if f, _ := n.Compute(idxCopy, ctx); f != nil && f.TryClaimForLoading() {
						_ = f.Load()
					}
				})
			} else {
				_, _ = n.Compute(idxCopy, ctx)
			}
			if off == 0 {
				break // center-off == center+off, don't double-enqueue
			}
		}
	}
}

// isVideoPath reports whether path's extension is in the opaque-video set.
func isVideoPath(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return videoExtensions[ext]
}
