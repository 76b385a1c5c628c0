// Command marmite serves or exports the recipe site.
package main

// version is set at build time via ldflags.
var version = "dev"

func main() {
	Execute()
}
