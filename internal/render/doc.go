// Package render turns a ping and its analysis into the text of a Linear
// issue: title, description and follow-up comment. Rendering is pure; the
// caller decides what to do with the output.
package render
