// Package plaintext provides the default Normaliser for text payloads and
// the whitespace canonicalisation shared by the other normalisers.
package plaintext
