// Command settee maps documents in a store to the entity types declared in
// its config.yaml.
package main

import "github.com/mesh-intelligence/settee/internal/cli"

func main() {
	cli.Execute()
}
