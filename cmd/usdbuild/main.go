package main

import (
	"os"

	"github.com/goplus/usdbuild/cmd/usdbuild/internal"
)

func main() {
	os.Exit(internal.Execute())
}
