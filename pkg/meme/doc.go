// Package meme provides the public API for composing memes: an image,
// rotated, scaled and optionally mirrored, with an upper-cased caption at
// the top and bottom edges.
//
// # Basic Usage
//
// The simplest way to use meme is to create a generator from a
// configuration file and export it:
//
//	g, err := meme.NewFromFile("meme.lua", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer g.Close()
//
//	path, err := g.ExportFile(ctx, "")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Configuration Sources
//
// A generator can be created from four sources:
//
//   - Disk file: Use [NewFromFile] to load a Lua, YAML, TOML or plain file
//   - Embedded FS: Use [NewFromFS] to load from an [io/fs.FS]
//   - io.Reader: Use [NewFromReader] for dynamic configurations
//   - A [Config] value: Use [New] and change it with [Generator.SetConfig]
//
// # Images
//
// The image comes from an http(s) URL, a base64 data URI or a local file.
// Decoded images are cached by address, and concurrent loads of the same
// address share one fetch. Remote fetches pass through a [CircuitBreaker]
// so a failing host is not retried on every render.
//
// # Rendering
//
// [Generator.Render] returns a [Rendered] raster that can be encoded as PNG
// or JPEG or turned into a data URL. [Generator.RenderTo] draws onto any
// render.Surface, such as a preview window.
//
// # Error Handling
//
// Errors returned by a generator are [*CategorizedError] values:
//
//	g.SetErrorHandler(func(err error) {
//		log.Printf("meme error: %v", err)
//	})
//
// The handler is called asynchronously; do not block in the handler.
//
// # Hot Reload
//
// A generator created with [NewFromFile] can watch its file:
//
//	err := g.Watch(ctx, func(r *meme.Rendered, err error) {
//		if err == nil {
//			r.Encode(out)
//		}
//	})
package meme
