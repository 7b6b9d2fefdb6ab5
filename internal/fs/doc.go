// Package fs abstracts the filesystem under the file-backed page store.
//
//   - [LocalFS]: the os package
//   - [FaultyFS]: wraps another FileSystem and injects write, sync and
//     close failures so tests can exercise torn flushes
//
// Production code uses fs.Default:
//
//	f, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
//
// Operations take no context.Context. Local syscalls cannot be interrupted;
// slow remote IO goes through blobstore, which does take one.
package fs
