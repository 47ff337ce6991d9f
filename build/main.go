// Build tasks for the pbsetup repository.
//
// Usage:
//
//	go run ./build          run the default task (all)
//	go run ./build test     run a single task
package main

import (
	"github.com/goyek/goyek/v3"
	"github.com/goyek/x/boot"
	"github.com/goyek/x/cmd"
)

var gofmt = goyek.Define(goyek.Task{
	Name:  "fmt",
	Usage: "format Go code",
	Action: func(a *goyek.A) {
		cmd.Exec(a, "gofmt -l -w .")
	},
})

var vet = goyek.Define(goyek.Task{
	Name:  "vet",
	Usage: "run go vet",
	Action: func(a *goyek.A) {
		cmd.Exec(a, "go vet ./...")
	},
})

var test = goyek.Define(goyek.Task{
	Name:  "test",
	Usage: "run unit tests",
	Action: func(a *goyek.A) {
		cmd.Exec(a, "go test -race ./...")
	},
})

var all = goyek.Define(goyek.Task{
	Name:  "all",
	Usage: "run all checks",
	Deps:  goyek.Deps{gofmt, vet, test},
})

func main() {
	goyek.SetDefault(all)
	boot.Main()
}
