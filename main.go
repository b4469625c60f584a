package main

import (
	"toolseed/cmd"
)

// main hands control to the cobra command tree in package cmd.
//
// toolseed installs developer toolchains (Go, Zig, ZLS and anything with
// GitHub releases) straight from their official release channels:
//   - Each tool's version spec (latest, a pinned version, or "auto" for a
//     companion like ZLS) is resolved against the publisher's own index
//   - Artifacts are downloaded, checked against published SHA-256 sums and,
//     where the publisher signs releases, a minisign or PGP signature
//   - Versions are unpacked side by side under the install prefix and the
//     active one is exposed through symlinks that are swapped atomically
//
// A failing tool is reported and the run moves on to the next one; the
// process exits non-zero if any tool failed.
func main() {
	cmd.Execute()
}
