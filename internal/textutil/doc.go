// Package textutil turns file paths into display titles and media names into
// file names that are safe to create inside a cache directory.
package textutil
