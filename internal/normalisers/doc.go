// Package normalisers provides the payload normalisers and the registry
// that selects one by payload format. Every payload passes through a
// normaliser before it is digested, so two captures of the same content
// produce the same digest regardless of incidental whitespace.
package normalisers
