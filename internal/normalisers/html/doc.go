// Package html provides a Normaliser implementation for HTML payloads.
// Pages pushed by browser integrations are converted to markdown so the
// structure survives into the chunks; when conversion fails the tags are
// stripped instead.
package html
