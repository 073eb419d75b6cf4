/*
 * SEIS - Driver protocol: JSON response shapes for the line-delimited
 * command set.
 *
 * Copyright 2024, Richard Cornwell
 */

package sim

import "github.com/rcornwell/seis/cache"

// pageView answers `page P`: the page's content hash (decimal string,
// so it survives a round trip through any JSON consumer regardless of
// whether it treats large integers as float64) and its raw bytes.
type pageView struct {
	Hash string `json:"hash"`
	Data []byte `json:"data"`
}

// disasmEntry is one element of the `disasm P` array.
type disasmEntry struct {
	Address     uint32 `json:"address"`
	Bytes       []byte `json:"bytes"`
	Instruction string `json:"instruction"`
}

// cacheView is one element of the `cache` array: one per cache kind.
type cacheView struct {
	Kind    string           `json:"kind"`
	Enabled bool             `json:"enabled"`
	Stats   cache.Stats      `json:"stats"`
	Lines   []cache.LineView `json:"lines,omitempty"`
}

// pagesInfo answers `info pages`.
type pagesInfo struct {
	PageCount uint32 `json:"page_count"`
}
