// Package cache provides the in-memory caches used by the page file and the
// blob store.
//
// # Page cache
//
// LRU is a generic, size-accounted LRU map. Put reports the entries it had
// to evict so that the owner can write dirty pages back before they are
// dropped; the cache itself never performs IO. Memory is charged to an
// optional resource.Controller.
//
// # Block cache
//
// BlockCache stores immutable byte blocks fetched from remote blobs.
// RistrettoBlockCache backs it with a TinyLFU admission cache. Ristretto
// applies writes asynchronously, so a Get right after a Set may miss.
package cache
