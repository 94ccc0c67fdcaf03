// Command cachesim replays a valgrind memory trace through a set-associative
// LRU cache and reports hits, misses, and evictions.
package main

import "github.com/sarchlab/cachesim/cachesim/cmd"

func main() {
	cmd.Execute()
}
