// Package playa is an interactive image-sequence and compositing engine.
//
// It ingests numbered frame sequences (EXR/PNG/JPG/TIFF/TGA/HDR) and video
// files, organizes them into a hierarchical node graph of layered
// compositions, and drives a realtime playback loop that asynchronously
// loads, transforms, blends, and caches frames for a viewport.
//
// # Node graph
//
// Every compositable thing is a [Node]: a [FileNode] reads a frame sequence
// or video from disk, a [CompNode] blends an ordered list of [Layer]
// instances of other nodes, a [CameraNode] supplies a view-projection for
// 3D-transformed layers, and a [TextNode] rasterizes text. Nodes live in a
// [Project]'s registry and are referenced by UUID, never by direct pointer,
// so the graph stays an arena rather than an ownership tree.
//
//	proj := playa.NewProject(cacheMgr, workers, bus)
//	fileUUID := proj.AddMedia(playa.NewFileNode("plate", "shot.%04d.exr"))
//	compUUID := proj.CreateComp("main", 24)
//	proj.ModifyComp(compUUID, func(c *playa.CompNode) { c.AddLayer(fileUUID) })
//
// # Compute protocol
//
// [Node.Compute] is deterministic and recursive: a [CompNode] walks its
// layers back-to-front, recursively computing each layer's source node,
// applying the layer's 3D transform (optionally through a [CameraNode]'s
// view-projection), and handing the ordered frames to a [Compositor] to
// blend into a single canvas [Frame]. Results are cached by (node UUID,
// frame index) in a [FrameCache] so repeated queries for an unchanged frame
// never recompute.
//
// # Concurrency
//
// A [WorkerPool] of work-stealing goroutines promotes [FileNode] frames from
// Header to Loaded in the background while the UI thread polls the cache.
// An epoch counter on the cache lets bulk edits cancel all outstanding
// preload work cooperatively: [WorkerPool.ExecuteWithEpoch] drops a task the
// moment it is popped if the epoch has since moved on.
package playa
