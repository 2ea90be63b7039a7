// Package cover resolves the artwork attached to a combined audiobook.
//
// A cover reference is either an http(s) URL, downloaded with a bounded
// timeout and an identifying User-Agent, or a local path resolved against
// the manifest directory. Images that are too large, or in a format mp4
// cannot carry as attached_pic (GIF, WebP), are re-encoded as JPEG.
//
// Every failure here is a degradation: callers log it and combine without
// artwork.
package cover
