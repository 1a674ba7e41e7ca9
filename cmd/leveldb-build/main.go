package main

import "github.com/goplus/leveldb-build/cmd/leveldb-build/internal"

func main() {
	internal.Execute()
}
